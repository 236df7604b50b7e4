package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.toml", "-a", "http://localhost:8000"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.toml"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.yaml", "-a", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.yaml"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept",
			args:         []string{"-t"},
			allowedFlags: []string{"-t"},
			want:         []string{"-t"},
		},
		{
			name:         "next dash token is not a value",
			args:         []string{"-c", "-l", "debug"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "several allowed flags keep order",
			args:         []string{"-a", "http://h:1", "-d", "x.db", "-c", "c.json"},
			allowedFlags: []string{"-a", "-d"},
			want:         []string{"-a", "http://h:1", "-d", "x.db"},
		},
		{
			name:         "empty args",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"-c", "/p/short.toml"}, want: "/p/short.toml"},
		{name: "long", args: []string{"-config", "/p/long.json"}, want: "/p/long.json"},
		{name: "double dash equals", args: []string{"--config=/p/x.yaml"}, want: "/p/x.yaml"},
		{name: "other flags ignored", args: []string{"-a", "http://h", "-l", "debug"}, want: ""},
		{name: "last wins", args: []string{"-c", "/p/1.json", "-config", "/p/2.json"}, want: "/p/2.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}

// Package buildinfo holds version data injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/ragdesk/internal/buildinfo.Version=v0.3.0"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// PrintBuildData writes the build version, date and commit to w.
func PrintBuildData(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Build version: %s\n", Version)
	_, _ = fmt.Fprintf(w, "Build date: %s\n", Date)
	_, _ = fmt.Fprintf(w, "Build commit: %s\n", Commit)
}

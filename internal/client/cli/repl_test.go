package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	err      error
	block    bool
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error {
	f.loggedIn = true
	return f.record("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Whoami(context.Context) error { return f.record("whoami") }
func (f *fakeExec) Ask(ctx context.Context, q string) error {
	if f.block {
		<-ctx.Done()
		f.calls = append(f.calls, "ask:"+q)
		return ctx.Err()
	}
	return f.record("ask:" + q)
}
func (f *fakeExec) Act(_ context.Context, goal string) error { return f.record("act:" + goal) }
func (f *fakeExec) Ingest(_ context.Context, args []string) error {
	return f.record("ingest:" + strings.Join(args, ","))
}
func (f *fakeExec) Upload(_ context.Context, args []string) error {
	return f.record("upload:" + strings.Join(args, ","))
}
func (f *fakeExec) Docs(_ context.Context, args []string) error {
	return f.record("docs:" + strings.Join(args, ","))
}
func (f *fakeExec) Chunks(_ context.Context, args []string) error {
	return f.record("chunks:" + args[0])
}
func (f *fakeExec) RemoveDoc(_ context.Context, args []string) error {
	return f.record("rmdoc:" + args[0])
}
func (f *fakeExec) Mkdir(_ context.Context, args []string) error {
	return f.record("mkdir:" + args[0])
}
func (f *fakeExec) Dirs(_ context.Context, args []string) error {
	return f.record("dirs:" + strings.Join(args, ","))
}
func (f *fakeExec) Stats(context.Context) error { return f.record("stats") }

// captureOutput replaces printlnFn for the duration of the test.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func plainScope(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

func runLines(exec execIface, lines ...string) {
	reader := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "" }, reader, plainScope)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{}

	runLines(exec,
		"login",
		"ask what is   in the docs?",
		"act summarise q3",
		"ingest",
		"ingest /srv/a.md",
		"upload ./a.md /docs x y",
		"docs",
		"docs /docs",
		"chunks d1",
		"rmdoc d1",
		"mkdir /new",
		"dirs /",
		"stats",
		"whoami",
		"logout",
		"exit",
		"stats",
	)

	assert.Equal(t, []string{
		"login",
		"ask:what is in the docs?",
		"act:summarise q3",
		"ingest:",
		"ingest:/srv/a.md",
		"upload:./a.md,/docs,x,y",
		"docs:",
		"docs:/docs",
		"chunks:d1",
		"rmdoc:d1",
		"mkdir:/new",
		"dirs:/",
		"stats",
		"whoami",
		"logout",
	}, exec.calls)
}

func TestRunREPL_RequiresLogin(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{}

	runLines(exec, "stats", "ask hi", "help", "frobnicate")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Please log in first")
	assert.Contains(t, *out, helpLoggedOut)
	assert.Contains(t, *out, "Unknown command: frobnicate")
}

func TestRunREPL_UsageAndErrors(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{loggedIn: true, err: errors.New("boom")}

	runLines(exec, "ask", "chunks", "stats", "help", "quit")

	assert.Equal(t, []string{"stats"}, exec.calls)
	assert.Contains(t, *out, "Usage: ask <question>")
	assert.Contains(t, *out, "Usage: chunks <doc-id>")
	assert.Contains(t, *out, "Error: boom")
	assert.Contains(t, *out, helpLoggedIn)
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_InterruptEndsCommandOnly(t *testing.T) {
	out := captureOutput(t)
	exec := &fakeExec{loggedIn: true, block: true}

	// The scope cancels immediately, like a Ctrl-C arriving mid-stream.
	cancelled := func(ctx context.Context) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		return ctx, cancel
	}
	reader := bufio.NewReader(strings.NewReader("ask slow\nask again\n"))
	runREPL(context.Background(), exec, func() string { return "" }, reader, cancelled)

	require.Equal(t, []string{"ask:slow", "ask:again"}, exec.calls)
	assert.Contains(t, *out, "Interrupted")
	assert.NotContains(t, *out, "Error: context canceled")
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{loggedIn: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := bufio.NewReader(strings.NewReader("stats\n"))
	runREPL(ctx, exec, func() string { return "" }, reader, plainScope)
	assert.Empty(t, exec.calls)
}

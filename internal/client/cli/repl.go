package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Ask(ctx context.Context, question string) error
	Act(ctx context.Context, goal string) error
	Ingest(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Docs(ctx context.Context, args []string) error
	Chunks(ctx context.Context, args []string) error
	RemoveDoc(ctx context.Context, args []string) error
	Mkdir(ctx context.Context, args []string) error
	Dirs(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: ask <question>, act <goal>, ingest [server-path], " +
		"upload <file> [dir] [tags], docs [dir], chunks <doc-id>, rmdoc <doc-id>, " +
		"mkdir <dir>, dirs [dir], stats, whoami, logout, help, exit"
)

// usage lists the commands that need at least one argument.
var usage = map[string]string{
	"ask":    "Usage: ask <question>",
	"act":    "Usage: act <goal>",
	"upload": "Usage: upload <file> [dir] [tags]",
	"chunks": "Usage: chunks <doc-id>",
	"rmdoc":  "Usage: rmdoc <doc-id>",
	"mkdir":  "Usage: mkdir <dir>",
}

// public commands work without a session.
var public = map[string]bool{"help": true, "register": true, "login": true, "exit": true, "quit": true}

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
// The first word of a line is the command and the rest its arguments.
// Commands other than register and login need a session. Each command runs
// under a context from scope, so an interrupt ends that command only.
// Errors returned by commands are printed and the loop continues.
func runREPL(
	ctx context.Context,
	a execIface,
	statusFn func() string,
	reader *bufio.Reader,
	scope func(context.Context) (context.Context, context.CancelFunc),
) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ragdesk%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if msg, ok := usage[cmd]; ok && len(args) == 0 {
			printlnFn(msg)
			continue
		}
		if !public[cmd] && !a.isLoggedIn() {
			if _, known := commands[cmd]; known {
				printlnFn("Please log in first")
				continue
			}
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			run, ok := commands[cmd]
			if !ok {
				printlnFn("Unknown command:", cmd)
				continue
			}
			cmdCtx, cancel := scope(ctx)
			err := run(a, cmdCtx, args)
			interrupted := cmdCtx.Err() != nil && ctx.Err() == nil
			cancel()

			switch {
			case interrupted:
				printlnFn("Interrupted")
			case err != nil:
				printlnFn("Error:", err)
			}
		}
	}
}

type command func(a execIface, ctx context.Context, args []string) error

var commands = map[string]command{
	"register": func(a execIface, ctx context.Context, _ []string) error { return a.Register(ctx) },
	"login":    func(a execIface, ctx context.Context, _ []string) error { return a.Login(ctx) },
	"logout":   func(a execIface, ctx context.Context, _ []string) error { return a.Logout(ctx) },
	"whoami":   func(a execIface, ctx context.Context, _ []string) error { return a.Whoami(ctx) },
	"ask": func(a execIface, ctx context.Context, args []string) error {
		return a.Ask(ctx, strings.Join(args, " "))
	},
	"act": func(a execIface, ctx context.Context, args []string) error {
		return a.Act(ctx, strings.Join(args, " "))
	},
	"ingest": execIface.Ingest,
	"upload": execIface.Upload,
	"docs":   execIface.Docs,
	"chunks": execIface.Chunks,
	"rmdoc":  execIface.RemoveDoc,
	"mkdir":  execIface.Mkdir,
	"dirs":   execIface.Dirs,
	"stats":  func(a execIface, ctx context.Context, _ []string) error { return a.Stats(ctx) },
}

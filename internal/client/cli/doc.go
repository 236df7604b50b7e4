// Package cli provides the interactive ragdesk command-line client.
//
// It wires configuration, the credential database, the API services and a
// read-eval-print loop. Commands cover the account (register, login,
// logout, whoami), documents (upload, docs, chunks, rmdoc, mkdir, dirs),
// retrieval (ask, ingest, stats) and the agent (act). Answers to ask and
// act are printed as they stream in; Ctrl-C abandons a running command
// without leaving the REPL.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

// Package cli is the interactive gophauth client. It prompts for
// credentials, calls the HTTP API through internal/client/client and keeps
// the session cookie for the life of the process.
//
// The REPL is started with App.Run and returns when the user types exit or
// input ends.
package cli

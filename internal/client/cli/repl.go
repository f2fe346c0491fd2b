package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface runREPL drives; tests supply a stub.
type execIface interface {
	isLoggedIn() bool
	status() string
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Verify2FA(ctx context.Context) error
	Logout(ctx context.Context) error
	Verify(ctx context.Context, token string) error
}

// runREPL reads commands from reader until exit/quit or end of input.
//
//	help              show available commands
//	signup            create an account
//	login             authenticate; may ask for verify-2fa next
//	verify-2fa        submit the emailed code
//	verify [token]    check a token, or the current session
//	logout            revoke the current session
//	exit | quit       leave the program
//
// Command errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "gophauth %s > ", a.status())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: verify [token], logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: signup, login, verify-2fa, verify <token>, exit")
			}

		case "signup":
			cmdErr = a.Signup(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "verify-2fa":
			cmdErr = a.Verify2FA(ctx)

		case "verify":
			var token string
			if len(args) > 0 {
				token = args[0]
			}
			cmdErr = a.Verify(ctx, token)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			if errors.Is(cmdErr, io.EOF) {
				return
			}
			fmt.Fprintln(w, "Error:", cmdErr)
		}
	}
}

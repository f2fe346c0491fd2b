package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// API is the server surface the commands use; *client.Client implements it.
type API interface {
	Signup(ctx context.Context, email string, password []byte, requires2FA bool) error
	Login(ctx context.Context, email string, password []byte) (*client.LoginResult, error)
	Verify2FA(ctx context.Context, email, attemptID, code string) error
	Logout(ctx context.Context) error
	VerifyToken(ctx context.Context, token string) error
	Token() string
}

// pending2FA is a login waiting for its code.
type pending2FA struct {
	email     string
	attemptID string
}

type App struct {
	api     API
	reader  *bufio.Reader
	out     io.Writer
	email   string
	pending *pending2FA
}

// getPassword is swapped in tests to avoid touching the terminal.
var getPassword = GetPassword

func NewApp(c *config.Config) (*App, error) {
	api, err := client.New(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(api, os.Stdin, os.Stdout), nil
}

func newApp(api API, in io.Reader, out io.Writer) *App {
	return &App{api: api, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "gophauth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}

func (a *App) status() string {
	switch {
	case a.isLoggedIn():
		return a.email
	case a.pending != nil:
		return a.pending.email + " (2FA pending)"
	}
	return "anonymous"
}

func (a *App) Signup(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	requires2FA, err := GetYesNo(a.reader, "Enable two-factor login?", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Signup(ctx, email, password, requires2FA); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "User created")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if res.Requires2FA {
		a.pending = &pending2FA{email: email, attemptID: res.AttemptID}
		fmt.Fprintln(a.out, "A code was sent to your email; run verify-2fa")
		return nil
	}

	a.email = email
	a.pending = nil
	fmt.Fprintln(a.out, "Logged in")
	return nil
}

func (a *App) Verify2FA(ctx context.Context) error {
	if a.pending == nil {
		return errors.New("no login is waiting for a code; run login first")
	}

	code, err := GetSimpleText(a.reader, "Enter 2FA code", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Verify2FA(ctx, a.pending.email, a.pending.attemptID, code); err != nil {
		return err
	}

	a.email = a.pending.email
	a.pending = nil
	fmt.Fprintln(a.out, "Logged in")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Verify checks token, or the current session when token is empty.
func (a *App) Verify(ctx context.Context, token string) error {
	if err := a.api.VerifyToken(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Token is valid")
	return nil
}

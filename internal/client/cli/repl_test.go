package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	token    string
	fail     error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) status() string   { return "anonymous" }
func (f *fakeExec) Signup(context.Context) error {
	f.calls = append(f.calls, "signup")
	return f.fail
}
func (f *fakeExec) Login(context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Verify2FA(context.Context) error {
	f.calls = append(f.calls, "verify-2fa")
	return nil
}
func (f *fakeExec) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Verify(_ context.Context, token string) error {
	f.calls = append(f.calls, "verify")
	f.token = token
	return nil
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	in := strings.Join([]string{"", "help", "signup", "login", "verify-2fa", "verify abc", "logout", "bogus", "exit", "login"}, "\n")
	f := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), f, bufio.NewReader(strings.NewReader(in)), &out)

	assert.Equal(t, []string{"signup", "login", "verify-2fa", "verify", "logout"}, f.calls)
	assert.Equal(t, "abc", f.token)
	assert.Contains(t, out.String(), "Available commands: signup")
	assert.Contains(t, out.String(), "Unknown command: bogus")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_PrintsErrorsAndStopsOnEOF(t *testing.T) {
	f := &fakeExec{fail: errors.New("server replied 409: User already exists")}
	var out bytes.Buffer

	runREPL(context.Background(), f, bufio.NewReader(strings.NewReader("signup\n")), &out)

	assert.Equal(t, []string{"signup"}, f.calls)
	assert.Contains(t, out.String(), "Error: server replied 409: User already exists")
	assert.NotContains(t, out.String(), "Bye!")
}

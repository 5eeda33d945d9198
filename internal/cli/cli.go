// Package cli implements the accountctl commands on top of client.Session.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"storefront_accounts/internal/client"
	"storefront_accounts/internal/model"

	"golang.org/x/term"
)

const defaultAPIURL = "http://localhost:8080"

// readPassword is a test seam for term.ReadPassword
var readPassword = term.ReadPassword

// Env carries the process streams a command talks to
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type app struct {
	env     Env
	in      *bufio.Reader
	api     *client.Client
	session *client.Session
}

const usage = `usage: accountctl [-api URL] [-session FILE] <command> [flags]

commands:
  register   open a new account
  login      log in and store the session
  logout     forget the stored session
  whoami     show the session state and user
  update     change profile fields (asks for the current password)
  delete     delete the logged-in account
`

// Run parses args and executes one command
func Run(ctx context.Context, args []string, env Env) error {
	fs := flag.NewFlagSet("accountctl", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	fs.Usage = func() { fmt.Fprint(env.Err, usage) }

	apiURL := fs.String("api", envOr("ACCOUNTS_API_URL", defaultAPIURL), "account API base URL")
	sessionPath := fs.String("session", "", "session file (default: user config dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	path := *sessionPath
	if path == "" {
		var err error
		if path, err = defaultSessionPath(); err != nil {
			return err
		}
	}

	api := client.NewClient(*apiURL)
	session, err := client.NewSession(api, client.NewFileStore(path))
	if err != nil {
		return err
	}

	a := &app{env: env, in: bufio.NewReader(env.In), api: api, session: session}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "update":
		return a.update(ctx, rest)
	case "delete":
		return a.delete(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	var req model.RegisterRequest
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.StringVar(&req.Mobile, "mobile", "", "mobile number")
	fs.StringVar(&req.Password, "password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if req.Password == "" {
		pw, err := a.password("Password: ")
		if err != nil {
			return err
		}
		req.Password = pw
	}

	user, err := a.api.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Out, "registered %s (%s)\n", user.Username, user.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		var err error
		if pw, err = a.password("Password: "); err != nil {
			return err
		}
	}

	user, err := a.session.Login(ctx, *username, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Out, "logged in as %s\n", user.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.env.Out, "logged out")
	return nil
}

func (a *app) whoami() error {
	fmt.Fprintln(a.env.Out, a.session.State())
	if a.session.State() != client.StateAuthenticated {
		return nil
	}
	if user := a.session.User(); user != nil {
		enc := json.NewEncoder(a.env.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	fs := a.flags("update")
	current := fs.String("current-password", "", "current password (prompted when empty)")
	var fullName, username, email, mobile, newPassword optional
	fs.Var(&fullName, "name", "new full name")
	fs.Var(&username, "username", "new username")
	fs.Var(&email, "email", "new email")
	fs.Var(&mobile, "mobile", "new mobile number")
	fs.Var(&newPassword, "new-password", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *current
	if pw == "" {
		var err error
		if pw, err = a.password("Current password: "); err != nil {
			return err
		}
	}

	user, err := a.session.UpdateProfile(ctx, pw, model.ProfileUpdate{
		FullName: fullName.ptr(),
		Username: username.ptr(),
		Email:    email.ptr(),
		Mobile:   mobile.ptr(),
		Password: newPassword.ptr(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Out, "updated %s\n", user.Username)
	return nil
}

func (a *app) delete(ctx context.Context) error {
	user := a.session.User()
	if a.session.State() != client.StateAuthenticated || user == nil {
		return client.ErrNotAuthenticated
	}

	deleted, err := a.api.DeleteAccount(ctx, a.session.Token(), user.ID)
	if err != nil {
		return err
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Out, "deleted %s\n", deleted.Username)
	return nil
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.env.Err)
	return fs
}

// password reads without echo from a terminal, otherwise one line from In
func (a *app) password(prompt string) (string, error) {
	fmt.Fprint(a.env.Err, prompt)
	if f, ok := a.env.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.env.Err)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// optional is a string flag that remembers whether it was set
type optional struct {
	value string
	set   bool
}

func (o *optional) String() string { return o.value }

func (o *optional) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

func (o *optional) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

func defaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "storefront", "session.json"), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

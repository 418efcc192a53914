package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrUsage = errors.New("usage")

const usage = `usage: dashcli [-server URL] <command> [args]

commands:
  register              create an account
  login                 sign in and save the token
  logout                forget the saved token
  profile               show your profile
  update                edit name, email and membership
  avatar <url>          set your avatar image URL
  qr [-o file.png]      generate your QR code
  lookup [-o file] <id> show another user's public QR code
  health                server status
`

// App runs dashcli commands against a Client.
type App struct {
	Client *Client
	Tokens TokenFile
	In     *bufio.Reader
	Out    io.Writer
}

// Run executes one command. args excludes the program name and global flags.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.Out, usage)
		return ErrUsage
	}

	token, err := a.Tokens.Load()
	if err != nil {
		return err
	}
	a.Client.SetToken(token)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		if err := a.Tokens.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "Logged out.")
		return nil
	case "profile":
		return a.profile(ctx)
	case "update":
		return a.update(ctx)
	case "avatar":
		return a.avatar(ctx, rest)
	case "qr":
		return a.qr(ctx, rest)
	case "lookup":
		return a.lookup(ctx, rest)
	case "health":
		return a.health(ctx)
	default:
		fmt.Fprintf(a.Out, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) prompt(label string) (string, error) {
	if _, err := fmt.Fprint(a.Out, label+": "); err != nil {
		return "", err
	}
	line, err := a.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) promptDefault(label, current string) (string, error) {
	v, err := a.prompt(fmt.Sprintf("%s [%s]", label, current))
	if err != nil || v == "" {
		return current, err
	}
	return v, nil
}

// password reads without echo on a terminal. Piped stdin is read as a
// plain line from In so scripts can feed credentials.
func (a *App) password() (string, error) {
	fmt.Fprint(a.Out, "Password: ")
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := a.In.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	pw, err := readPassword(fd)
	fmt.Fprintln(a.Out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func (a *App) saveSession(res *AuthResult) error {
	if err := a.Tokens.Save(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Signed in as %s <%s> (%s)\n", res.User.Name, res.User.Email, res.User.Membership)
	return nil
}

func (a *App) register(ctx context.Context) error {
	name, err := a.prompt("Name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}

	res, err := a.Client.Register(ctx, name, email, pw)
	if err != nil {
		return err
	}
	return a.saveSession(res)
}

func (a *App) login(ctx context.Context) error {
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}

	res, err := a.Client.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	return a.saveSession(res)
}

func (a *App) printUser(u *User) {
	fmt.Fprintf(a.Out, "ID:         %s\n", u.ID)
	fmt.Fprintf(a.Out, "Name:       %s\n", u.Name)
	fmt.Fprintf(a.Out, "Email:      %s\n", u.Email)
	fmt.Fprintf(a.Out, "Membership: %s\n", u.Membership)
	fmt.Fprintf(a.Out, "Avatar:     %s\n", u.Avatar)
	if u.LastLogin != nil {
		fmt.Fprintf(a.Out, "Last login: %s\n", u.LastLogin.Local().Format("2006-01-02 15:04"))
	}
}

func (a *App) profile(ctx context.Context) error {
	u, err := a.Client.Profile(ctx)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

// update prompts for each field, keeping the current value on empty input.
func (a *App) update(ctx context.Context) error {
	current, err := a.Client.Profile(ctx)
	if err != nil {
		return err
	}

	name, err := a.promptDefault("Name", current.Name)
	if err != nil {
		return err
	}
	email, err := a.promptDefault("Email", current.Email)
	if err != nil {
		return err
	}
	membership, err := a.promptDefault("Membership (Basic/Premium/Enterprise)", current.Membership)
	if err != nil {
		return err
	}

	in := ProfileUpdate{Name: name, Email: email, Membership: membership}
	u, err := a.Client.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) avatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.Out, "usage: dashcli avatar <url>")
		return ErrUsage
	}

	u, err := a.Client.SetAvatar(ctx, args[0])
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) qr(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	out := fs.String("o", "", "write the PNG to this file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	code, err := a.Client.GenerateQRCode(ctx)
	if err != nil {
		return err
	}
	if err := a.showQRCode(code, *out); err != nil {
		return err
	}
	if code.DownloadURL != "" {
		fmt.Fprintf(a.Out, "Download: %s\n", code.DownloadURL)
	}
	return nil
}

func (a *App) lookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	out := fs.String("o", "", "write the PNG to this file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.Out, "usage: dashcli lookup [-o file.png] <user id>")
		return ErrUsage
	}

	code, err := a.Client.LookupQRCode(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return a.showQRCode(code, *out)
}

// showQRCode prints the payload and draws it as a terminal QR code. The
// drawing encodes the same JSON the server encoded into the PNG.
func (a *App) showQRCode(code *QRCode, pngPath string) error {
	var payload bytes.Buffer
	if err := json.Compact(&payload, code.Payload); err != nil {
		return fmt.Errorf("decode qr payload: %w", err)
	}

	symbol, err := goqrcode.New(payload.String(), goqrcode.Medium)
	if err != nil {
		return fmt.Errorf("render qr code: %w", err)
	}

	fmt.Fprintln(a.Out, symbol.ToSmallString(false))
	fmt.Fprintln(a.Out, payload.String())

	if pngPath == "" {
		return nil
	}

	png, err := code.PNG()
	if err != nil {
		return err
	}
	if err := os.WriteFile(pngPath, png, 0o644); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	fmt.Fprintf(a.Out, "Saved %s\n", pngPath)
	return nil
}

func (a *App) health(ctx context.Context) error {
	h, err := a.Client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s: %s (%d users, %s)\n", h.Status, h.Message, h.UsersCount, h.Timestamp)
	return nil
}

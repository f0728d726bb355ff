// Package cli implements the interactive favorites client. It drives the
// session cache: commands read and mutate the local mirror, and the mirror
// reconciles against server responses.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/worldscope/countries-api/internal/client/api"
	"github.com/worldscope/countries-api/internal/client/session"
	"github.com/worldscope/countries-api/internal/core/domain"
)

type App struct {
	session *session.Manager
	client  *api.Client
	reader  *bufio.Reader
	out     io.Writer
	logger  zerolog.Logger
}

func NewApp(cfg *Config, in io.Reader, out io.Writer, logger zerolog.Logger) *App {
	client := api.New(cfg.ServerURL, cfg.Timeout)
	store := session.NewFileStore(cfg.StateFile)

	return &App{
		session: session.NewManager(client, store, logger),
		client:  client,
		reader:  bufio.NewReader(in),
		out:     out,
		logger:  logger,
	}
}

// Run resumes any persisted session and enters the command loop. It returns
// when the user exits or input reaches EOF.
func (a *App) Run(ctx context.Context) {
	if state := a.session.Resume(ctx); state == session.StateAuthenticated {
		if identity, ok := a.session.Identity(); ok {
			fmt.Fprintf(a.out, "Welcome back, %s.\n", identity.Username)
		}
	}

	fmt.Fprintln(a.out, `Type "help" for commands.`)

	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if cmd == "exit" || cmd == "quit" {
			return
		}
		a.dispatch(ctx, cmd, args)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		a.help()
	case "register":
		a.register(ctx)
	case "login":
		a.login(ctx)
	case "logout":
		a.session.Logout()
		fmt.Fprintln(a.out, "Logged out.")
	case "me":
		a.me()
	case "list":
		a.list(ctx)
	case "add", "remove", "toggle":
		if len(args) != 1 {
			fmt.Fprintf(a.out, "usage: %s <country-code>\n", cmd)
			return
		}
		a.toggle(ctx, cmd, strings.ToUpper(args[0]))
	case "countries":
		if len(args) == 0 {
			fmt.Fprintln(a.out, "usage: countries <name>")
			return
		}
		a.countries(ctx, strings.Join(args, " "))
	default:
		fmt.Fprintf(a.out, "unknown command %q, try \"help\"\n", cmd)
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, `Commands:
  register            create an account and sign in
  login               sign in
  logout              sign out and clear local state
  me                  show the current identity
  list                show favorite country codes (refreshed from server)
  add <code>          add a favorite (e.g. add CAN)
  remove <code>       remove a favorite
  toggle <code>       flip a favorite
  countries <name>    search the country catalog
  exit                quit`)
}

func (a *App) register(ctx context.Context) {
	username, password, err := a.credentials()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.session.Register(ctx, username, password); err != nil {
		a.printAuthError(err, "Registration failed")
		return
	}
	fmt.Fprintf(a.out, "Registered and signed in as %s.\n", username)
}

func (a *App) login(ctx context.Context) {
	username, password, err := a.credentials()
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.session.Login(ctx, username, password); err != nil {
		a.printAuthError(err, "Login failed")
		return
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", username)
}

func (a *App) credentials() (username, password string, err error) {
	username, err = promptText(a.reader, "Username", a.out)
	if err != nil {
		return "", "", err
	}
	password, err = promptPassword(a.out)
	return username, password, err
}

func (a *App) me() {
	identity, ok := a.session.Identity()
	if !ok {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}
	fmt.Fprintf(a.out, "%s (id %s), %d favorite(s)\n", identity.Username, identity.ID, len(a.session.Favorites()))
}

func (a *App) list(ctx context.Context) {
	if err := a.session.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrMissingToken) {
			fmt.Fprintln(a.out, "Not signed in.")
			return
		}
		// Stale mirror is still worth showing; flag that it may lag.
		fmt.Fprintf(a.out, "warning: could not refresh (%v), showing cached view\n", err)
	}

	favorites := a.session.Favorites()
	if len(favorites) == 0 {
		fmt.Fprintln(a.out, "No favorites yet.")
		return
	}
	for _, code := range favorites {
		fmt.Fprintln(a.out, code)
	}
}

func (a *App) toggle(ctx context.Context, cmd, code string) {
	// add/remove are explicit intents; bail out when the mirror already
	// matches instead of issuing a redundant (if harmless) request.
	isFav := a.session.IsFavorite(code)
	if cmd == "add" && isFav {
		fmt.Fprintf(a.out, "%s is already a favorite.\n", code)
		return
	}
	if cmd == "remove" && !isFav {
		fmt.Fprintf(a.out, "%s is not a favorite.\n", code)
		return
	}

	added, err := a.session.Toggle(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrMissingToken) {
			fmt.Fprintln(a.out, "Not signed in.")
			return
		}
		fmt.Fprintf(a.out, "Could not update favorites (%v), try again later.\n", err)
		return
	}

	if added {
		fmt.Fprintf(a.out, "Added %s.\n", code)
	} else {
		fmt.Fprintf(a.out, "Removed %s.\n", code)
	}
}

func (a *App) countries(ctx context.Context, name string) {
	countries, err := a.client.SearchCountries(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrCountryNotFound) {
			fmt.Fprintln(a.out, "No countries matched.")
			return
		}
		fmt.Fprintf(a.out, "Catalog lookup failed: %v\n", err)
		return
	}

	for _, country := range countries {
		marker := " "
		if a.session.IsFavorite(country.CCA3) {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %-6s %s (%s)\n", marker, country.CCA3, country.Name.Common, country.Region)
	}
}

func (a *App) printAuthError(err error, prefix string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		fmt.Fprintf(a.out, "%s: invalid credentials.\n", prefix)
	case errors.Is(err, domain.ErrUserExists):
		fmt.Fprintf(a.out, "%s: username already exists.\n", prefix)
	case errors.Is(err, api.ErrUnavailable):
		fmt.Fprintf(a.out, "%s: cannot reach the server.\n", prefix)
	default:
		fmt.Fprintf(a.out, "%s: %v\n", prefix, err)
	}
}

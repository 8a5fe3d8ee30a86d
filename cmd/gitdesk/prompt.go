package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(1, 2)

	tokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

var errNoTerminal = errors.New("credentials required but stdin is not a terminal")

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptCredentials asks for what the remote rejected. The form is
// prefilled from the repository's profile.
func promptCredentials(ar engine.AuthRequired) (engine.Credentials, error) {
	if !isInteractive() {
		return engine.Credentials{}, errNoTerminal
	}

	creds := engine.Credentials{Username: ar.Username}
	fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("The remote rejected the %s request.", ar.Action)))

	var fields []huh.Field
	if ar.Mode == auth.SSH {
		if creds.Username == "" {
			creds.Username = "git"
		}
		creds.KeyPath = ar.Secret
		fields = []huh.Field{
			huh.NewInput().Title("Username").Value(&creds.Username),
			huh.NewInput().
				Title("Private key").
				Placeholder("~/.ssh/id_ed25519").
				Value(&creds.KeyPath),
			huh.NewInput().
				Title("Passphrase").
				Description("Leave empty for unencrypted keys").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Passphrase),
		}
	} else {
		creds.Secret = ar.Secret
		fields = []huh.Field{
			huh.NewInput().Title("Username").Value(&creds.Username),
			huh.NewInput().
				Title("Password or token").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Secret),
		}
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return engine.Credentials{}, fmt.Errorf("form input: %w", err)
	}
	creds.Username = strings.TrimSpace(creds.Username)
	creds.KeyPath = expandHome(strings.TrimSpace(creds.KeyPath))
	return creds, nil
}

// runAction runs req and answers credential requests until the engine
// reports a final outcome.
func runAction(ctx context.Context, eng *engine.Engine, req engine.Request) (engine.Outcome, error) {
	out, err := eng.Run(ctx, req)
	for err == nil && out.Auth != nil {
		creds, perr := promptCredentials(*out.Auth)
		if perr != nil {
			return out, perr
		}
		results, rerr := eng.Retry(ctx, *out.Auth, creds)
		if rerr != nil {
			return out, rerr
		}
		out, err = eng.Complete(<-results)
	}
	return out, err
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if isInteractive() {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

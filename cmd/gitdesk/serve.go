package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bantamhq/gitdesk/internal/core"
	"github.com/bantamhq/gitdesk/internal/server"
)

func newServeCmd() *cobra.Command {
	var rotate bool
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP for a desktop front end",
		Long: `Serve the engine on the [server] address from the config.

Requests need the bearer token printed on first start. The token is
stored only as a hash; pass --rotate-token to issue a new one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := injectApp(true)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Config.Server.TokenHash == "" || rotate {
				token, hash, err := core.NewBridgeToken()
				if err != nil {
					return fmt.Errorf("generate token: %w", err)
				}
				app.Config.Server.TokenHash = hash
				if err := app.Config.Save(); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
				showToken(token)
			}

			if open {
				if _, err := app.Engine.Open(repoFlag); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.NewServer(app.Engine, app.Config.Server.TokenHash)
			fmt.Printf("Serving on http://%s\n", app.Config.ServerAddr())
			return srv.Start(ctx, app.Config.ServerAddr())
		},
	}

	cmd.Flags().BoolVar(&rotate, "rotate-token", false, "issue a new bearer token")
	cmd.Flags().BoolVar(&open, "open", false, "select the --repo repository before serving")
	return cmd
}

func showToken(token string) {
	lines := []string{
		titleStyle.Render("Bridge token"),
		"",
		tokenStyle.Render(token),
		"",
		subtleStyle.Render("Shown once. Send it as: Authorization: Bearer <token>"),
	}
	fmt.Println()
	fmt.Println(boxStyle.Render(strings.Join(lines, "\n")))
	fmt.Println()
}

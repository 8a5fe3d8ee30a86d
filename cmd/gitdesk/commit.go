package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bantamhq/gitdesk/internal/engine"
	"github.com/bantamhq/gitdesk/internal/signing"
)

func newCommitCmd() *cobra.Command {
	var title, description string
	var all bool

	cmd := &cobra.Command{
		Use:   "commit [paths...]",
		Short: "Commit changed files",
		Long: `Commit the given files, or every changed file with --all.

Folders select every changed file below them. Signing follows the
repository profile or commit.gpgsign in the global git config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("commit title is required (-m)")
			}
			if !all && len(args) == 0 {
				return errors.New("name the files to commit or pass --all")
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if all {
				app.Engine.SelectAll(true)
			} else if err := selectOnly(app.Engine, args); err != nil {
				return err
			}

			in := engine.CommitInput{Title: strings.TrimSpace(title), Description: description}
			hash, err := app.Engine.Commit(in)
			if errors.Is(err, signing.ErrPassphraseMissing) {
				if in.Passphrase, err = readSecret("Signing key passphrase: "); err != nil {
					return err
				}
				hash, err = app.Engine.Commit(in)
			}
			if err != nil {
				return err
			}

			selected, total := app.Engine.ChangeCounts()
			fmt.Printf("Committed %s\n", tokenStyle.Render(shortHash(hash.String())))
			if total > 0 {
				fmt.Println(subtleStyle.Render(fmt.Sprintf("%d files still changed (%d selected)", total, selected)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "message", "m", "", "commit title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "commit description")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "commit every changed file")
	return cmd
}

// selectOnly narrows the selection to paths. A path may name a changed
// file or a folder of changed files.
func selectOnly(eng *engine.Engine, paths []string) error {
	eng.SelectAll(false)
	for _, p := range paths {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "./"), "/")
		if err := eng.SelectFile(p, true); err == nil {
			continue
		}
		if err := eng.SelectFolder(p, true); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

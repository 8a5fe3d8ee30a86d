package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/logging"
	"github.com/bantamhq/gitdesk/internal/tui"
)

var repoFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:           "gitdesk",
		Short:         "A terminal git client",
		Long:          `gitdesk manages local clones: review changes, commit, and sync with remotes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "C", ".", "repository to operate on")

	rootCmd.AddCommand(
		newCloneCmd(),
		newOpenCmd(),
		newReposCmd(),
		newStatusCmd(),
		newLogCmd(),
		newCommitCmd(),
		newSyncCmd("fetch", "Download objects and refs from the remote"),
		newSyncCmd("pull", "Fetch and fast-forward the current branch"),
		newSyncCmd("push", "Push the current branch to its remote"),
		newBranchCmd(),
		newProfileCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	app, err := injectApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	// The alternate screen owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(app.Config.DataDir, "gitdesk.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logging.Setup(app.Config.Log, logFile)

	if _, err := app.Engine.Open(repoFlag); err != nil && gitops.KindOf(err) != gitops.KindNotARepository {
		return err
	}

	return tui.Run(app.Engine)
}

// openApp wires the components and selects the repository named by
// --repo.
func openApp() (*App, error) {
	app, err := injectApp(false)
	if err != nil {
		return nil, err
	}
	if _, err := app.Engine.Open(repoFlag); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

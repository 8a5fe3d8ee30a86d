package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bantamhq/gitdesk/internal/engine"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List, create, switch and delete branches",
		RunE:  runBranchList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List local and remote-tracking branches",
			RunE:  runBranchList,
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a branch at HEAD and switch to it",
			Args:  cobra.ExactArgs(1),
			RunE:  runBranchCreate,
		},
		newBranchCheckoutCmd(),
		newBranchDeleteCmd(),
	)

	return cmd
}

func runBranchList(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	branches, err := app.Engine.Branches()
	if err != nil {
		return err
	}
	for _, b := range branches {
		marker := "  "
		if b.Current {
			marker = "* "
		}
		name := b.Name
		if b.Remote {
			name = subtleStyle.Render(name)
		} else if b.Current {
			name = titleStyle.Render(name)
		}
		line := marker + name
		if b.Upstream != "" {
			line += subtleStyle.Render(" → " + b.Upstream)
		}
		fmt.Println(line)
	}
	return nil
}

func runBranchCreate(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	branch, err := app.Engine.CreateBranch(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Created %s at %s\n", branch.Name, shortHash(branch.Hash))
	return nil
}

func newBranchCheckoutCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "checkout <name>",
		Short: "Switch branches",
		Long:  "Switch to a local branch, or with --remote create a tracking branch from a remote one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Engine.Checkout(args[0], remote); err != nil {
				return err
			}
			fmt.Printf("Switched to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&remote, "remote", "r", false, "name is a remote-tracking branch")
	return cmd
}

func newBranchDeleteCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a local branch, or the remote branch with --remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if !remote {
				if err := app.Engine.DeleteBranch(args[0]); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", args[0])
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			repo, _ := app.Engine.Selected()
			_, err = runAction(ctx, app.Engine, engine.Request{
				Action:     engine.ActionDeleteRemoteBranch,
				Branch:     args[0],
				UseProfile: repo.ProfileID != nil,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Deleted remote branch %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&remote, "remote", "r", false, "delete the branch on the remote")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bantamhq/gitdesk/internal/engine"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/store"
)

func newCloneCmd() *cobra.Command {
	var dir, profileID string

	cmd := &cobra.Command{
		Use:   "clone <url>",
		Short: "Clone a repository and register it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := injectApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			req := engine.Request{Action: engine.ActionClone, URL: args[0], ParentDir: dir}
			if profileID != "" {
				req.Profile = engine.SelectedProfile{ID: profileID}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			out, err := runAction(ctx, app.Engine, req)
			if err != nil {
				return err
			}
			if out.Repository != nil {
				fmt.Printf("Cloned %s into %s\n", out.Repository.Name, out.Repository.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "parent directory (default: clone_dir from config)")
	cmd.Flags().StringVar(&profileID, "profile", "", "profile to assign to the clone")
	return cmd
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [path]",
		Short: "Register an existing clone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				repoFlag = args[0]
			}
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			repo, _ := app.Engine.Selected()
			fmt.Printf("Registered %s (%s)\n", repo.Name, repo.Path)
			return nil
		},
	}
}

const reposPageSize = 100

func newReposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List registered repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := injectApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			var repos []store.Repository
			for cursor := ""; ; {
				page, err := app.Engine.Repositories(cursor, reposPageSize)
				if err != nil {
					return err
				}
				repos = append(repos, page...)
				if len(page) < reposPageSize {
					break
				}
				cursor = page[len(page)-1].ID
			}
			if len(repos) == 0 {
				fmt.Println(subtleStyle.Render("No repositories registered"))
				return nil
			}
			for _, r := range repos {
				opened := "never opened"
				if r.LastOpenedAt != nil {
					opened = "opened " + humanize.Time(*r.LastOpenedAt)
				}
				fmt.Printf("%s  %s  %s\n", titleStyle.Render(r.Name), r.Path, subtleStyle.Render(opened))
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show changed files and distance to upstream",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			printTracking(app.Engine)

			tree := app.Engine.Changes()
			if len(tree.Files) == 0 {
				fmt.Println(subtleStyle.Render("Nothing to commit"))
				return nil
			}
			for _, f := range tree.Files {
				fmt.Printf("  %s %-12s %s\n", checkbox(f.Selected), f.Status, f.Path())
			}
			return nil
		},
	}
}

func printTracking(eng *engine.Engine) {
	branches, err := eng.Branches()
	if err != nil {
		return
	}
	for _, b := range branches {
		if !b.Current {
			continue
		}
		line := "On branch " + titleStyle.Render(b.Name)
		if b.Upstream != "" {
			line += subtleStyle.Render(" tracking " + b.Upstream)
		}
		fmt.Println(line)
	}

	fetch, err := eng.Status()
	if err != nil {
		if gitops.KindOf(err) != gitops.KindPrecondition {
			fmt.Println(warnStyle.Render(err.Error()))
		}
		return
	}
	if fetch.CommitsToPush > 0 || fetch.CommitsToPull > 0 {
		fmt.Printf("%d to push, %d to pull\n", fetch.CommitsToPush, fetch.CommitsToPull)
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func checkbox(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func newLogCmd() *cobra.Command {
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the commit log of the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if limit <= 0 {
				limit = app.Config.History.PageSize
			}
			page, err := app.Engine.LoadCommitsLimit(cursor, limit)
			if err != nil {
				return err
			}

			for _, c := range page.Entries {
				marker := " "
				if !c.Pushed {
					marker = warnStyle.Render("↑")
				}
				fmt.Printf("%s %s %s %s\n", marker, tokenStyle.Render(shortHash(c.ID)), c.Title,
					subtleStyle.Render("("+c.Author+", "+humanize.Time(c.When)+")"))
			}
			if page.HasMore {
				fmt.Println(subtleStyle.Render("more: gitdesk log --cursor " + page.Cursor))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of commits (default: page_size from config)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue after this commit")
	return cmd
}

func newSyncCmd(name, short string) *cobra.Command {
	action, err := engine.ParseAction(name)
	if err != nil {
		panic(err)
	}

	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			repo, _ := app.Engine.Selected()
			req := engine.Request{
				Action:     action,
				UseProfile: repo.ProfileID != nil,
			}
			out, err := runAction(ctx, app.Engine, req)
			if err != nil {
				return err
			}

			fmt.Printf("%s finished: %d to push, %d to pull\n",
				strings.ToUpper(name[:1])+name[1:], out.Fetch.CommitsToPush, out.Fetch.CommitsToPull)
			return nil
		},
	}
}

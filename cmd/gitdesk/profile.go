package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bantamhq/gitdesk/internal/store"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage identities and remote credentials",
		RunE:  runProfileList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List profiles",
			RunE:  runProfileList,
		},
		newProfileAddCmd(),
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Delete a profile",
			Args:  cobra.ExactArgs(1),
			RunE:  runProfileRemove,
		},
		&cobra.Command{
			Use:   "assign <id|none>",
			Short: "Assign a profile to the repository",
			Args:  cobra.ExactArgs(1),
			RunE:  runProfileAssign,
		},
	)

	return cmd
}

func runProfileList(cmd *cobra.Command, args []string) error {
	app, err := injectApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	profiles, err := app.Engine.Profiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println(subtleStyle.Render("No profiles"))
		return nil
	}

	for _, p := range profiles {
		var extras []string
		if p.Username != "" {
			extras = append(extras, "user "+p.Username)
		}
		if p.Password != "" {
			extras = append(extras, "password")
		}
		if p.PrivateKeyPath != "" {
			extras = append(extras, "key "+p.PrivateKeyPath)
		}
		if p.SigningKey != "" {
			extras = append(extras, "signs with "+p.SigningKey)
		}
		fmt.Printf("%s  %s <%s>  %s\n", subtleStyle.Render(p.ID), titleStyle.Render(p.Name), p.Email,
			subtleStyle.Render(strings.Join(extras, ", ")))
	}
	return nil
}

func newProfileAddCmd() *cobra.Command {
	var p store.Profile
	var askPassword bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a profile",
		Long:  "Create a profile. Missing name and email are asked for interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (p.Name == "" || p.Email == "") && isInteractive() {
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().Title("Name").Description("Author name for commits").Value(&p.Name),
						huh.NewInput().Title("Email").Value(&p.Email),
						huh.NewInput().Title("Username").Description("Remote login, optional").Value(&p.Username),
					),
				)
				if err := form.Run(); err != nil {
					return fmt.Errorf("form input: %w", err)
				}
			}
			if askPassword {
				secret, err := readSecret("Password or token: ")
				if err != nil {
					return err
				}
				p.Password = secret
			}
			p.PrivateKeyPath = expandHome(p.PrivateKeyPath)

			app, err := injectApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			saved, renamed, err := app.Engine.SaveProfile(p)
			if err != nil {
				return err
			}
			if renamed {
				fmt.Println(warnStyle.Render(fmt.Sprintf("Name taken, saved as %q", saved.Name)))
			}
			fmt.Printf("Created profile %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "author name")
	cmd.Flags().StringVar(&p.Email, "email", "", "author email")
	cmd.Flags().StringVar(&p.Username, "username", "", "remote username")
	cmd.Flags().BoolVar(&askPassword, "password", false, "prompt for an HTTPS password or token")
	cmd.Flags().StringVar(&p.PrivateKeyPath, "key", "", "SSH private key path")
	cmd.Flags().StringVar(&p.SigningKey, "signing-key", "", "OpenPGP key ID used to sign commits")
	return cmd
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	app, err := injectApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Engine.DeleteProfile(args[0]); err != nil {
		return err
	}
	fmt.Println("Profile removed")
	return nil
}

func runProfileAssign(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var id *string
	if args[0] != "none" {
		id = &args[0]
	}
	if err := app.Engine.AssignProfile(id); err != nil {
		return err
	}

	repo, _ := app.Engine.Selected()
	if id == nil {
		fmt.Printf("Cleared profile of %s\n", repo.Name)
	} else {
		fmt.Printf("Assigned profile %s to %s\n", *id, repo.Name)
	}
	return nil
}

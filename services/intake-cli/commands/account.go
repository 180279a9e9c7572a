package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tradeguard/platform/services/consignment-service/client"
)

func errNotLoggedIn(err error) error {
	if errors.Is(err, client.ErrNoSession) {
		return errors.New("not logged in, run `tradeguard login` first")
	}
	return err
}

func registerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <profile.yaml>",
		Short: "Create an account from a YAML or JSON profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var r client.Registration
			if err := yaml.Unmarshal(raw, &r); err != nil {
				return fmt.Errorf("parse profile: %w", err)
			}

			id, err := a.api.Register(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (user %s)\n", r.Email, id)
			return nil
		},
	}
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TRADEGUARD_PASSWORD")
			}
			sess, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.sessions.Save(sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s %s (%s)\n", sess.Profile.FirstName, sess.Profile.LastName, sess.Profile.UserRole)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (env TRADEGUARD_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tradeguard/platform/services/consignment-service/client"
	"github.com/tradeguard/platform/shared/config"
)

const defaultAPI = "http://127.0.0.1:5000"

// app is what every subcommand works against once flags are parsed.
type app struct {
	apiURL     string
	sessionDir string

	api      *client.Client
	sessions *client.SessionStore
}

// session returns the saved login or a hint to run login first.
func (a *app) session() (client.Session, error) {
	sess, err := a.sessions.Load()
	if err != nil {
		return client.Session{}, errNotLoggedIn(err)
	}
	return sess, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tradeguard",
		Short:         "Export consignment intake and compliance checks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.sessionDir == "" {
				dir, err := os.UserConfigDir()
				if err != nil {
					return err
				}
				a.sessionDir = filepath.Join(dir, "tradeguard")
			}
			a.api = client.New(a.apiURL)
			a.sessions = client.NewSessionStore(a.sessionDir)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api", config.GetEnv("TRADEGUARD_API", defaultAPI), "API base URL (env TRADEGUARD_API)")
	root.PersistentFlags().StringVar(&a.sessionDir, "session-dir", "", "where the login session is kept (default <user config dir>/tradeguard)")

	root.AddCommand(
		registerCmd(a),
		loginCmd(a),
		logoutCmd(a),
		intakeCmd(a),
		scoreCmd(a),
		hsCodeCmd(a),
		listCmd(a),
		reportCmd(a),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		root.PrintErrln("Error:", err)
	}
	return err
}

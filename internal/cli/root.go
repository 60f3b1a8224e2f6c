package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/heysagnik/chikki/internal/infrastructure/config"
)

// AppFactory builds the App once flags are parsed.
type AppFactory func(cmd *cobra.Command) (*App, error)

// DefaultFactory loads CHIKKI_* configuration and wires the real layers.
func DefaultFactory(cmd *cobra.Command) (*App, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	if url, _ := cmd.Flags().GetString("api-url"); url != "" {
		cfg.APIURL = url
	}
	return NewApp(cfg, cmd.OutOrStdout())
}

// NewRootCommand builds the chikki command tree.
func NewRootCommand(factory AppFactory) *cobra.Command {
	var app *App

	root := &cobra.Command{
		Use:           "chikki",
		Short:         "AI writing assistant client",
		Long:          "chikki talks to a Chikki relay: sign in, check status and generate text from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := factory(cmd)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app != nil && app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}
	root.PersistentFlags().String("api-url", "", "relay base URL (overrides CHIKKI_API_URL)")

	get := func() *App { return app }
	root.AddCommand(
		newLoginCommand(get),
		newRegisterCommand(get),
		newLogoutCommand(get),
		newStatusCommand(get),
		newGenerateCommand(get),
		newActionCommand(get),
		newMenuCommand(get),
		newSettingsCommand(get),
	)
	return root
}

// Execute runs the CLI with the default factory.
func Execute(ctx context.Context) error {
	root := NewRootCommand(DefaultFactory)
	root.SetOut(os.Stdout)
	return root.ExecuteContext(ctx)
}

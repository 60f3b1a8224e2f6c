package cli

import (
	"github.com/spf13/cobra"

	"github.com/heysagnik/chikki/internal/extension/popup"
)

func credentialFlags(cmd *cobra.Command, c *Credentials, withName bool) {
	if withName {
		cmd.Flags().StringVar(&c.Name, "name", "", "display name")
	}
	cmd.Flags().StringVar(&c.Email, "email", "", "account email")
	cmd.Flags().StringVar(&c.Password, "password", "", "account password (prompted when omitted)")
}

func newLoginCommand(app func() *App) *cobra.Command {
	var creds Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			c, err := a.Prompter.Credentials(false, creds)
			if err != nil {
				return err
			}
			p := a.popup()
			err = p.Login(cmd.Context(), c.Email, c.Password)
			a.render(p.Model())
			return err
		},
	}
	credentialFlags(cmd, &creds, false)
	return cmd
}

func newRegisterCommand(app func() *App) *cobra.Command {
	var creds Credentials
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			c, err := a.Prompter.Credentials(true, creds)
			if err != nil {
				return err
			}
			p := a.popup()
			err = p.Register(cmd.Context(), c.Name, c.Email, c.Password)
			a.render(p.Model())
			return err
		},
	}
	credentialFlags(cmd, &creds, true)
	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			p := a.popup()
			p.CheckAuthState(cmd.Context())
			if p.Model().View == popup.ViewAuth {
				a.render(p.Model())
				return nil
			}
			err := p.Logout(cmd.Context())
			a.render(p.Model())
			return err
		},
	}
}

func newStatusCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in account and relay health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			p := a.popup()
			m := p.CheckAuthState(cmd.Context())
			if m.View == popup.ViewAuth {
				p.RefreshHealth(cmd.Context())
			}
			a.render(p.Model())
			return nil
		},
	}
}

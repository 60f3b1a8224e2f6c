package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heysagnik/chikki/internal/extension/background"
	"github.com/heysagnik/chikki/internal/extension/content"
	"github.com/heysagnik/chikki/internal/extension/protocol"
)

type outputFlags struct {
	html bool
}

func (o *outputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.html, "html", false, "print the result rendered as sanitized HTML")
}

func (o outputFlags) print(a *App, text string) {
	if o.html {
		fmt.Fprintln(a.Out, content.RenderResult(text))
		return
	}
	fmt.Fprintln(a.Out, text)
}

func responseError(resp protocol.Response) error {
	if resp.Success {
		return nil
	}
	if resp.Error == "" {
		return errors.New("request failed")
	}
	return errors.New(resp.Error)
}

func newGenerateCommand(app func() *App) *cobra.Command {
	var (
		selection string
		out       outputFlags
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate text, optionally about a selection",
		Long: `Send a prompt to the relay.

With --selection the prompt is asked about the given text the same way the
in-page assistant frames it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			prompt := strings.Join(args, " ")

			if selection == "" {
				resp := a.Sender.Send(cmd.Context(), protocol.Message{Type: protocol.ActionGenerate, Prompt: prompt})
				if err := responseError(resp); err != nil {
					return err
				}
				out.print(a, resp.Data)
				return nil
			}

			snap, ok := content.NewSnapshot(selection, content.Range{End: len([]rune(selection))}, content.TargetTextarea, content.Rect{})
			if !ok {
				return content.ErrInvalidSelection
			}
			opts := content.Options{Sender: a.Sender, Logger: a.Logger}
			opts.ApplySettings(a.settings(cmd.Context()))
			ctrl := content.NewController(opts)
			defer ctrl.Close()
			if _, err := ctrl.Open(snap); err != nil {
				return err
			}
			state, err := ctrl.Submit(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			result := state.(content.Result)
			if result.Failed() {
				return result.Err
			}
			out.print(a, result.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&selection, "selection", "s", "", "text the prompt is about")
	out.bind(cmd)
	return cmd
}

func newActionCommand(app func() *App) *cobra.Command {
	var (
		data protocol.Data
		out  outputFlags
	)
	cmd := &cobra.Command{
		Use:       "action <kind> <text>",
		Short:     "Run a predefined writing action on text",
		Long:      "Kinds: " + strings.Join(background.Kinds, ", ") + ".",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: background.Kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			settings := a.settings(cmd.Context())

			d := data
			d.Text = strings.Join(args[1:], " ")
			if d.Tone == "" {
				d.Tone = settings.DefaultTone
			}
			if d.Language == "" {
				d.Language = settings.DefaultLanguage
			}
			if d.Context == "" {
				d.Context = settings.FindInfoContext
			}

			resp := a.Sender.Send(cmd.Context(), protocol.Message{Action: protocol.PerformAction(args[0]), Data: &d})
			if err := responseError(resp); err != nil {
				return err
			}
			out.print(a, resp.Data)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Tone, "tone", "", "tone for changeTone")
	cmd.Flags().StringVar(&data.Language, "language", "", "target language for translate")
	cmd.Flags().StringVar(&data.Context, "context", "", "context for findInfo")
	out.bind(cmd)
	return cmd
}

func newMenuCommand(app func() *App) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:       "menu <" + protocol.MenuRewrite + "|" + protocol.MenuExplain + "> <text>",
		Short:     "Run a context menu entry on text",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{protocol.MenuRewrite, protocol.MenuExplain},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			resp := a.Sender.Send(cmd.Context(), protocol.Message{
				Action: protocol.ActionContextMenu,
				Data:   &protocol.Data{MenuItemID: args[0], Text: strings.Join(args[1:], " ")},
			})
			if err := responseError(resp); err != nil {
				return err
			}
			out.print(a, resp.Data)
			return nil
		},
	}
	out.bind(cmd)
	return cmd
}

func newSettingsCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show local preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			s := a.settings(cmd.Context())
			if a.Settings != nil {
				fmt.Fprintf(a.Out, "file: %s\n", a.Settings.Path())
			}
			fmt.Fprintf(a.Out, "default tone:      %s\n", s.DefaultTone)
			fmt.Fprintf(a.Out, "default language:  %s\n", s.DefaultLanguage)
			fmt.Fprintf(a.Out, "find info context: %s\n", s.FindInfoContext)
			fmt.Fprintf(a.Out, "min loading:       %dms\n", s.MinLoadingMillis)
			fmt.Fprintf(a.Out, "show icon:         %t\n", s.ShowIcon)
			return nil
		},
	}
	cmd.AddCommand(newSettingsSetCommand(app))
	return cmd
}

func newSettingsSetCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a preference (tone, language, context, min-loading, show-icon)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if a.Settings == nil {
				return errors.New("settings are not persisted in this mode")
			}
			s, err := a.Settings.Load()
			if err != nil {
				return err
			}
			if err := applySetting(&s, args[0], args[1]); err != nil {
				return err
			}
			return a.Settings.Save(s)
		},
	}
}

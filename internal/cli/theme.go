package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timmy/querydesk/internal/domain"
)

func newThemeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "theme [light|dark|toggle]",
		Short:       "Show or change the color theme",
		Args:        cobra.MaximumNArgs(1),
		ValidArgs:   []string{domain.ThemeLight, domain.ThemeDark, "toggle"},
		Annotations: map[string]string{offlineAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := e.session.Preferences
			if prefs == nil {
				return errors.New("preference store unavailable")
			}
			ctx := cmd.Context()

			var (
				theme string
				err   error
			)
			switch {
			case len(args) == 0:
				theme, err = prefs.Theme(ctx)
			case args[0] == "toggle":
				theme, err = prefs.ToggleTheme(ctx)
			default:
				theme = args[0]
				err = prefs.SetTheme(ctx, theme)
			}
			if err != nil {
				return err
			}

			st := NewStyles(theme)
			fmt.Fprintln(cmd.OutOrStdout(), st.Title.Render("Theme: "+theme))
			return nil
		},
	}
}

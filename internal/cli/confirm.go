package cli

import (
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/effort/internal/cli/formatter"
)

var (
	errNeedsConfirmation = errors.New("confirmation required: rerun with --yes")
	errAborted           = errors.New("aborted")
)

func effortHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func huhConfirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(effortHuhTheme()).WithShowHelp(false).Run()
	return ok, err
}

// confirm gates a destructive command. --yes skips the prompt; without it a
// non-interactive shell refuses.
func (a *App) confirm(yes bool, title string) error {
	if yes {
		return nil
	}
	if !a.interactive() {
		return errNeedsConfirmation
	}
	ask := a.Confirm
	if ask == nil {
		ask = huhConfirm
	}
	ok, err := ask(title)
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}

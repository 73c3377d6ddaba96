package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func printApplied(w io.Writer, name, duration string) {
	fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("OK  "), name, subtleStyle.Render("("+duration+")"))
}

func printRolledBack(w io.Writer, name, duration string) {
	fmt.Fprintf(w, "%s %s %s\n", warnStyle.Render("DOWN"), name, subtleStyle.Render("("+duration+")"))
}

func printNote(w io.Writer, msg string) {
	fmt.Fprintln(w, subtleStyle.Render(msg))
}

// confirmRollback asks before a destructive rollback
func confirmRollback(target string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title("Roll back the most recent migration?").
		Description("Target: " + target).
		Affirmative("Roll back").
		Negative("Cancel").
		Value(&ok).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return ok, nil
}

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#D4A017")
	warnColor    = lipgloss.Color("#C0392B")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(24)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)
)

func printVersion(v string) {
	fmt.Println(titleStyle.Render("Sonic Alchemy"))
	printKV("Version", v)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnStyle.Render("Error:"), message)
}

func printTitle(s string) { fmt.Println(titleStyle.Render(s)) }

func printSection(s string) { fmt.Println(sectionStyle.Render(s)) }

func printKV(key, value string) {
	fmt.Println(keyStyle.Render(key) + valueStyle.Render(value))
}

func printWarnKV(key, value string) {
	fmt.Println(keyStyle.Render(key) + warnStyle.Render(value))
}

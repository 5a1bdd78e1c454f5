package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/danpasecinic/spindle/internal/container"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleBuilt       = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	_, _ = fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	_, _ = fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printBuildStatus reports whether an artifact was rebuilt or kept.
func printBuildStatus(w io.Writer, services int, cached bool) {
	status := styleBuilt.Render("built")
	if cached {
		status = styleCached.Render("cached")
	}
	_, _ = fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf("%d services", services))+StyleDim.Render(" · ")+status)
}

// renderServices draws the service table of a container graph.
func renderServices(info container.GraphInfo) string {
	rows := make([][]string, 0, len(info.Services))
	for _, svc := range info.Services {
		kind := "service"
		switch {
		case svc.Proxy:
			kind = "proxy"
		case svc.Class == "":
			kind = "synthetic"
		}
		visibility := "private"
		if svc.Public {
			visibility = "public"
		}
		rows = append(
			rows, []string{
				svc.ID,
				kind,
				visibility,
				strings.Join(svc.Tags, ", "),
				fmt.Sprintf("%d", len(svc.Dependencies)),
			},
		)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Service", "Kind", "Visibility", "Tags", "Deps").
		Rows(rows...).
		StyleFunc(
			func(row, col int) lipgloss.Style {
				if row == -1 {
					return headerStyle
				}
				if col == 1 && rows[row][1] == "proxy" {
					return StyleHighlight
				}
				if col == 2 && rows[row][2] == "private" {
					return StyleDim
				}
				return lipgloss.NewStyle()
			},
		)
	return t.Render()
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"gmboard/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const graphDays = 14

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.alert != "" {
		return m.viewAlert()
	}
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showGraph {
		return m.viewGraph()
	}

	chain := m.board.Chain()
	header := titleStyle.Render(fmt.Sprintf("gmboard • %s", chain.Name))

	feed := boxStyle.Width(m.width - 2).Render(m.viewport.View())

	compose := m.input.View()
	var button string
	switch {
	case m.snapshot.Sending:
		button = m.spinner.View() + " Publishing..."
	case m.connecting:
		button = m.spinner.View() + " Connecting..."
	case m.snapshot.Session == nil:
		button = subtleStyle.Render("enter: Connect & Publish • ctrl+w: Connect Wallet")
	case m.input.Value() == "":
		button = subtleStyle.Render("Publish")
	default:
		button = infoStyle.Render("enter: Publish")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewStatusBar(),
		feed,
		compose,
		button,
		m.viewFooter(),
	)
}

func (m model) viewStatusBar() string {
	chain := m.board.Chain()
	var parts []string
	if s := m.snapshot.Session; s != nil {
		parts = append(parts,
			infoStyle.Render("Connected: "+utils.ShortAddress(s.Address)+"..."),
			fmt.Sprintf("Balance: %s %s", utils.FormatBalance(s.NativeBalance, 4), chain.CurrencySymbol),
		)
	} else {
		parts = append(parts, subtleStyle.Render("Not connected"))
	}
	if cost := postCostLabel(chain, m.gasPrice); cost != "" {
		parts = append(parts, subtleStyle.Render(cost))
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" Loading messages...")
	}
	return strings.Join(parts, " • ")
}

func (m model) viewFooter() string {
	var lines []string
	if m.statusMessage != "" {
		lines = append(lines, infoStyle.Render(m.statusMessage))
	}
	if len(m.snapshot.Logs) > 0 {
		last := m.snapshot.Logs[0]
		style := subtleStyle
		if strings.HasPrefix(last.Message, "Error:") {
			style = errStyle
		}
		lines = append(lines, style.Render(utils.TruncateString(last.String(), m.width)))
	}
	lines = append(lines, subtleStyle.Render("f1: help • ctrl+r: refresh • ctrl+g: activity • esc: quit"))
	return strings.Join(lines, "\n")
}

func (m model) viewAlert() string {
	content := alertStyle.Width(min(60, m.width-4)).Render(lipgloss.JoinVertical(lipgloss.Center,
		errStyle.Bold(true).Render(m.alert),
		"",
		subtleStyle.Render("enter/esc: OK"),
	))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"enter: Publish (connects first if needed)",
		"ctrl+w: Connect Wallet",
		"ctrl+d: Disconnect",
		"ctrl+r: Refresh Messages",
		"ctrl+y: Copy Address",
		"ctrl+o: Open in Explorer",
		"ctrl+g: Activity Graph",
		"↑/↓/PgUp/PgDn: Scroll Messages",
		"esc/ctrl+c: Quit",
		"f1: Toggle Help",
	}

	header := titleStyle.Render("Help")
	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "\n", strings.Join(shortcuts, "\n")))
	footer := subtleStyle.Render(fmt.Sprintf("gmboard %s • Press 'f1' or 'esc' to close", Version))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer),
	)
}

func (m model) viewGraph() string {
	header := titleStyle.Render(fmt.Sprintf("Activity: posts per day - Last %d days", graphDays))

	targetBoxWidth := m.width - 4
	if targetBoxWidth < 0 {
		targetBoxWidth = 0
	}

	data := postsPerDay(m.snapshot.Messages, graphDays, time.Now())
	total := 0.0
	for _, v := range data {
		total += v
	}

	var graph, stats string
	if total > 0 {
		stats = subtleStyle.Render(fmt.Sprintf("Total: %.0f • Avg/day: %.1f", total, total/float64(len(data))))
		graphWidth := targetBoxWidth - 14
		if graphWidth < 10 {
			graphWidth = 10
		}
		graphHeight := m.height - 14
		if graphHeight < 1 {
			graphHeight = 1
		}
		graph = asciigraph.Plot(data,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("Posts per day (oldest → today)"),
		)
	} else {
		graph = "Not enough data to draw graph."
	}

	content := boxStyle.Width(targetBoxWidth).Align(lipgloss.Center).Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", stats, "\n", graph))
	footer := subtleStyle.Render("ctrl+g/esc: back")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

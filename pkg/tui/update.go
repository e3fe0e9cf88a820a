package tui

import (
	"time"

	"gmboard/pkg/state"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// rows taken by everything except the feed viewport
const chromeHeight = 11

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - chromeHeight
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.input.Width = msg.Width - 8
		m.refreshViewport()

	case state.Event:
		// Same channel, next event
		cmds = append(cmds, listenForStore(m.sub))

		m.snapshot = m.board.Store().Snapshot()
		switch msg.Type {
		case state.EventDraftCleared:
			m.input.SetValue("")
		case state.EventFeedUpdated:
			m.loading = false
		}
		m.lastUpdate = time.Now()
		m.refreshViewport()

	case startedMsg:
		m.loading = false
		m.snapshot = m.board.Store().Snapshot()
		m.lastUpdate = time.Now()
		m.refreshViewport()

	case opResultMsg:
		if msg.op == opConnect {
			m.connecting = false
		}
		if msg.op == opRefresh {
			m.loading = false
			if msg.err != nil {
				m.statusMessage = "Refresh failed: " + msg.err.Error()
			} else {
				m.statusMessage = "Messages refreshed"
			}
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		}
		m.alert = alertFor(msg.op, msg.err)

	case gasPriceMsg:
		if msg.err == nil {
			m.gasPrice = msg.price
		}

	case tea.KeyMsg:
		if m.alert != "" {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc", " ":
				m.alert = ""
			}
			return m, nil
		}
		if m.showHelp {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "f1", "esc", "q":
				m.showHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.showGraph {
				m.showGraph = false
				return m, nil
			}
			return m, tea.Quit
		case "f1":
			m.showHelp = true
			return m, nil
		case "ctrl+g":
			m.showGraph = !m.showGraph
			return m, nil

		case "ctrl+w":
			if m.connecting || m.snapshot.Session != nil {
				return m, nil
			}
			m.connecting = true
			cmds = append(cmds, connectCmd(m.ctx, m.board), m.spinner.Tick)

		case "ctrl+d":
			m.board.Disconnect()

		case "ctrl+r":
			m.loading = true
			m.statusMessage = "Refreshing messages..."
			cmds = append(cmds, refreshCmd(m.ctx, m.board), fetchGasPriceCmd(m.gasRPCs), m.spinner.Tick)

		case "ctrl+y":
			if m.snapshot.Session == nil {
				break
			}
			if err := clipboard.WriteAll(m.snapshot.Session.Address); err != nil {
				m.statusMessage = "Failed to copy to clipboard"
			} else {
				m.statusMessage = "Full address copied to clipboard!"
			}
			cmds = append(cmds, clearStatusAfter(2*time.Second))

		case "ctrl+o":
			addr := m.board.Chain().ContractAddress
			if m.snapshot.Session != nil {
				addr = m.snapshot.Session.Address
			}
			url := m.board.AddressURL(addr)
			if url == "" {
				m.statusMessage = "Explorer URL not configured"
			} else if err := openBrowser(url); err != nil {
				m.statusMessage = "Failed to open browser: " + err.Error()
			} else {
				m.statusMessage = "Opened in browser"
			}
			cmds = append(cmds, clearStatusAfter(2*time.Second))

		case "enter":
			text := m.input.Value()
			if m.snapshot.Sending || m.connecting || text == "" {
				return m, nil
			}
			if m.snapshot.Session == nil {
				m.connecting = true
				cmds = append(cmds, connectCmd(m.ctx, m.board), m.spinner.Tick)
				break
			}
			cmds = append(cmds, publishCmd(m.ctx, m.board, text), m.spinner.Tick)

		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case clearStatusMsg:
		m.statusMessage = ""

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.busy() {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) busy() bool {
	return m.loading || m.connecting || m.snapshot.Sending
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(renderFeed(m.snapshot.Messages, m.viewport.Width))
}

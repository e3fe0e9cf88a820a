package tui

import (
	"context"
	"math/big"
	"time"

	"gmboard/pkg/board"
	"gmboard/pkg/state"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}
type startedMsg struct{}

type opResultMsg struct {
	op  string
	err error
}

type gasPriceMsg struct {
	price *big.Int
	err   error
}

// --- Model ---

type model struct {
	ctx           context.Context
	board         *board.Board
	sub           state.Subscriber
	snapshot      state.Snapshot
	width         int
	height        int
	loading       bool
	connecting    bool
	lastUpdate    time.Time
	spinner       spinner.Model
	input         textinput.Model
	viewport      viewport.Model
	statusMessage string
	alert         string
	showHelp      bool
	showGraph     bool
	gasPrice      *big.Int
	gasRPCs       []string
}

func initialModel(ctx context.Context, b *board.Board, gasRPCs []string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Write message..."
	ti.CharLimit = 0
	ti.Width = 50
	ti.Focus()

	return model{
		ctx:      ctx,
		board:    b,
		sub:      b.Store().Subscribe(),
		snapshot: b.Store().Snapshot(),
		loading:  true,
		spinner:  s,
		input:    ti,
		viewport: viewport.New(0, 0),
		gasRPCs:  gasRPCs,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForStore(m.sub),
		m.spinner.Tick,
		textinput.Blink,
		startCmd(m.ctx, m.board),
		fetchGasPriceCmd(m.gasRPCs),
	)
}

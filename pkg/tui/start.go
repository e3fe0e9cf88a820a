package tui

import (
	"context"
	"fmt"
	"os"

	"gmboard/pkg/board"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
)

// Start runs the terminal client until the user quits. gasRPCs are used for
// the post cost estimate only.
func Start(ctx context.Context, b *board.Board, gasRPCs []string, version string) {
	Version = version
	m := initialModel(ctx, b, gasRPCs)
	defer b.Store().Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gmboard/pkg/board"
	"gmboard/pkg/models"
	"gmboard/pkg/publisher"
	"gmboard/pkg/rpc"
	"gmboard/pkg/session"
	"gmboard/pkg/state"
	"gmboard/pkg/utils"
	"gmboard/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-faster/errors"
)

const (
	opConnect = "connect"
	opPublish = "publish"
	opRefresh = "refresh"
)

func listenForStore(sub state.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func startCmd(ctx context.Context, b *board.Board) tea.Cmd {
	return func() tea.Msg {
		b.Start(ctx)
		return startedMsg{}
	}
}

func connectCmd(ctx context.Context, b *board.Board) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: opConnect, err: b.Connect(ctx)}
	}
}

func publishCmd(ctx context.Context, b *board.Board, text string) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: opPublish, err: b.Publish(ctx, text)}
	}
}

func refreshCmd(ctx context.Context, b *board.Board) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: opRefresh, err: b.Refresh(ctx)}
	}
}

func fetchGasPriceCmd(rpcURLs []string) tea.Cmd {
	if len(rpcURLs) == 0 {
		return nil
	}
	return func() tea.Msg {
		price, _, err := rpc.FetchGasPrice(rpcURLs)
		return gasPriceMsg{price: price, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// alertFor returns the blocking alert text for a failed operation, or "" when
// the failure should not interrupt the user.
func alertFor(op string, err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, session.ErrUserCancelled),
		errors.Is(err, publisher.ErrEmptyMessage),
		errors.Is(err, publisher.ErrAlreadySending),
		errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, wallet.ErrNoWallet):
		return "No wallet found! Set bridge_url or keystore_dir in the config."
	case errors.Is(err, session.ErrPendingRequest):
		return "Check your wallet: there is a pending connection request."
	}
	switch op {
	case opConnect:
		return "Connection Error: " + err.Error()
	case opPublish:
		return "Error sending: " + err.Error()
	}
	return ""
}

// postsPerDay counts confirmed messages per local day over the last days
// days, oldest first.
func postsPerDay(msgs []models.Message, days int, now time.Time) []float64 {
	if days <= 0 {
		return nil
	}
	counts := make([]float64, days)
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	for _, msg := range msgs {
		if msg.Pending {
			continue
		}
		t := time.Unix(msg.Timestamp, 0).In(now.Location())
		ty, tm, td := t.Date()
		day := time.Date(ty, tm, td, 0, 0, 0, 0, now.Location())
		age := int(today.Sub(day).Hours() / 24)
		if age < 0 || age >= days {
			continue
		}
		counts[days-1-age]++
	}
	return counts
}

func renderFeed(msgs []models.Message, width int) string {
	if len(msgs) == 0 {
		return subtleStyle.Render("No messages yet.")
	}
	textWidth := width - 4
	if textWidth < 10 {
		textWidth = 10
	}
	var rows []string
	for _, msg := range msgs {
		timeLabel := msg.TimeLabel()
		if msg.Pending {
			timeLabel = pendingStyle.Render(timeLabel)
		} else {
			timeLabel = subtleStyle.Render(timeLabel)
		}
		header := fmt.Sprintf("%s  %s", authorStyle.Render(utils.ShortAddress(msg.Author)+"..."), timeLabel)
		body := lipgloss.NewStyle().Width(textWidth).PaddingLeft(2).Render(msg.Text)
		rows = append(rows, header+"\n"+body)
	}
	return strings.Join(rows, "\n\n")
}

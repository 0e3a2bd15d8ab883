// Package tui renders sleuth rooms in the terminal and provides the
// interactive watch view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/sleuth/internal/protocol"
)

// RoomAPI is the subset of the client the watch view needs.
type RoomAPI interface {
	Status(ctx context.Context, code string) (protocol.GameStatusResponse, error)
	Hand(ctx context.Context, code, playerName string) (protocol.HandResponse, error)
	MakeGuess(ctx context.Context, code, playerName string, guess protocol.Triple) (protocol.MakeGuessResponse, error)
}

type statusMsg struct {
	status protocol.GameStatusResponse
	hand   []string
	err    error
}

type tickMsg struct{}

type guessMsg struct {
	err error
}

// WatchModel polls a room for one player and accepts that player's guess
// once the game is playing.
type WatchModel struct {
	api      RoomAPI
	code     string
	player   string
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger

	spinner spinner.Model
	input   textinput.Model

	status   *protocol.GameStatusResponse
	hand     []string
	err      error
	notice   string
	guessed  bool
	quitting bool
}

// NewWatchModel creates a watch view of room code for player.
func NewWatchModel(api RoomAPI, code, player string, interval time.Duration, logger *log.Logger) *WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	ti := textinput.New()
	ti.Placeholder = "suspect, location, weapon"
	ti.CharLimit = 200
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "
	ti.Focus()

	return &WatchModel{
		api:      api,
		code:     code,
		player:   player,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   logger.WithPrefix("watch"),
		spinner:  sp,
		input:    ti,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.fetch())
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		}

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = &msg.status
			m.hand = msg.hand
		}
		if m.finished() {
			return m, nil
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })

	case tickMsg:
		return m, m.fetch()

	case guessMsg:
		if msg.err != nil {
			m.notice = ErrorStyle.Render(msg.err.Error())
			return m, nil
		}
		m.guessed = true
		m.input.Reset()
		m.notice = SuccessStyle.Render("Guess submitted")
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.canGuess() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.status == nil {
		b.WriteString(m.spinner.View() + " Loading room " + m.code + "...\n")
	} else {
		b.WriteString(RenderStatus(*m.status) + "\n")
		fmt.Fprintf(&b, "\n%s %s\n", LabelStyle.Render(m.player+"'s cards:"), RenderCards(m.hand))
		if !m.finished() {
			fmt.Fprintf(&b, "\n%s %s\n", m.spinner.View(), InfoStyle.Render(m.waitingFor()))
		}
	}

	if m.canGuess() {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.notice != "" {
		b.WriteString(m.notice + "\n")
	}
	if m.err != nil {
		b.WriteString(ErrorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString(InfoStyle.Render("esc to quit") + "\n")
	return b.String()
}

func (m *WatchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		status, err := m.api.Status(ctx, m.code)
		if err != nil {
			m.logger.Debug("Status poll failed", "room", m.code, "error", err)
			return statusMsg{err: err}
		}
		msg := statusMsg{status: status}
		if status.Status != "finished" {
			hand, err := m.api.Hand(ctx, m.code, m.player)
			if err != nil {
				return statusMsg{err: err}
			}
			msg.hand = hand.Cards
		}
		return msg
	}
}

func (m *WatchModel) submit() tea.Cmd {
	if !m.canGuess() {
		return nil
	}
	guess, err := ParseGuess(m.input.Value())
	if err != nil {
		m.notice = ErrorStyle.Render(err.Error())
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		_, err := m.api.MakeGuess(ctx, m.code, m.player, guess)
		return guessMsg{err: err}
	}
}

func (m *WatchModel) canGuess() bool {
	return !m.guessed && m.status != nil && m.status.Status == "playing"
}

func (m *WatchModel) finished() bool {
	return m.status != nil && m.status.Status == "finished"
}

func (m *WatchModel) waitingFor() string {
	switch m.status.Status {
	case "waiting":
		return "Waiting for the game to start"
	default:
		return fmt.Sprintf("Waiting for guesses (%d/%d)", m.status.GuessesCount, m.status.TotalPlayers)
	}
}

// ParseGuess reads "suspect, location, weapon".
func ParseGuess(input string) (protocol.Triple, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 3 {
		return protocol.Triple{}, errors.New("guess must be: suspect, location, weapon")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return protocol.Triple{}, errors.New("guess must be: suspect, location, weapon")
		}
	}
	return protocol.Triple{Suspect: parts[0], Location: parts[1], Weapon: parts[2]}, nil
}

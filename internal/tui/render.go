package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/sleuth/internal/protocol"
)

// RenderCards lists cards on one line, or a placeholder when there are none.
func RenderCards(cards []string) string {
	if len(cards) == 0 {
		return InfoStyle.Render("(no cards)")
	}
	styled := make([]string, len(cards))
	for i, c := range cards {
		styled[i] = CardStyle.Render(c)
	}
	return strings.Join(styled, ", ")
}

// RenderTriple formats a guess or solution.
func RenderTriple(t protocol.Triple) string {
	return fmt.Sprintf("%s in the %s with the %s", t.Suspect, t.Location, t.Weapon)
}

// RenderStatus renders a room status snapshot.
func RenderStatus(s protocol.GameStatusResponse) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Room "+s.RoomCode) + "\n")
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Status: "), statusStyle(s.Status).Render(s.Status))
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Players:"), strings.Join(s.Players, ", "))
	if s.Status != "waiting" {
		fmt.Fprintf(&b, "%s %d/%d\n", LabelStyle.Render("Guesses:"), s.GuessesCount, s.TotalPlayers)
	}

	if s.Solution != nil {
		fmt.Fprintf(&b, "\n%s %s\n", LabelStyle.Render("Solution:"), SolutionStyle.Render(RenderTriple(*s.Solution)))
	}
	for _, r := range s.Results {
		mark := ErrorStyle.Render("✗")
		if r.Correct {
			mark = SuccessStyle.Render("✓")
		}
		fmt.Fprintf(&b, "  %s %-*s %s\n", mark, nameWidth(s.Players), r.Player, RenderTriple(r.Guess))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderCatalog renders the three card lists side by side.
func RenderCatalog(d protocol.GameDataResponse) string {
	column := func(title string, cards []string) string {
		lines := append([]string{HeaderStyle.Render(title)}, cards...)
		return lipgloss.NewStyle().MarginRight(2).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		column("Suspects", d.Suspects),
		column("Locations", d.Locations),
		column("Weapons", d.Weapons),
	)
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "playing":
		return WarningStyle
	case "finished":
		return SuccessStyle
	default:
		return InfoStyle
	}
}

func nameWidth(names []string) int {
	w := 0
	for _, n := range names {
		w = max(w, len(n))
	}
	return w
}

package room

import (
	"fmt"
	"time"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/gameerr"
)

// Guess is a sealed accusation naming one card per category.
type Guess struct {
	Suspect  deck.Card
	Location deck.Card
	Weapon   deck.Card
}

// Validate checks the guess shape: all three fields present.
func (g Guess) Validate() error {
	switch {
	case g.Suspect == "":
		return fmt.Errorf("%w: guess is missing a suspect", gameerr.ErrInvalidInput)
	case g.Location == "":
		return fmt.Errorf("%w: guess is missing a location", gameerr.ErrInvalidInput)
	case g.Weapon == "":
		return fmt.Errorf("%w: guess is missing a weapon", gameerr.ErrInvalidInput)
	}
	return nil
}

// Matches is exact equality on all three fields. There is no partial credit.
func (g Guess) Matches(s deck.Solution) bool {
	return g.Suspect == s.Suspect && g.Location == s.Location && g.Weapon == s.Weapon
}

// GuessRecord is a guess as stored in the room log.
type GuessRecord struct {
	Player      string
	Guess       Guess
	SubmittedAt time.Time
}

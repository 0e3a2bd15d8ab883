package deck

import (
	"fmt"

	"github.com/lox/sleuth/internal/gameerr"
)

// Category is one of the three card families.
type Category int

const (
	Suspect Category = iota
	Location
	Weapon
)

// String returns the lower-case category name used on the wire.
func (c Category) String() string {
	switch c {
	case Suspect:
		return "suspect"
	case Location:
		return "location"
	case Weapon:
		return "weapon"
	default:
		return "unknown"
	}
}

// Card is an opaque card identifier. Its category comes from the catalog list
// it was read from, never from the value itself.
type Card string

// Catalog holds the three fixed card lists a server deals from.
type Catalog struct {
	Suspects  []Card
	Locations []Card
	Weapons   []Card
}

// DefaultCatalog returns the classic six suspects, nine rooms and six weapons.
func DefaultCatalog() Catalog {
	return Catalog{
		Suspects: []Card{
			"Miss Scarlett", "Colonel Mustard", "Mrs. White",
			"Reverend Green", "Mrs. Peacock", "Professor Plum",
		},
		Locations: []Card{
			"Kitchen", "Ballroom", "Conservatory", "Dining Room", "Billiard Room",
			"Library", "Lounge", "Hall", "Study",
		},
		Weapons: []Card{
			"Candlestick", "Dagger", "Lead Pipe", "Revolver", "Rope", "Wrench",
		},
	}
}

// Validate reports an empty list, a blank card, a card repeated inside one
// list, or a card shared between lists.
func (c Catalog) Validate() error {
	seen := make(map[Card]Category)
	for _, cat := range []Category{Suspect, Location, Weapon} {
		cards := c.List(cat)
		if len(cards) == 0 {
			return fmt.Errorf("%w: no %s cards", gameerr.ErrInvalidConfiguration, cat)
		}
		for _, card := range cards {
			if card == "" {
				return fmt.Errorf("%w: blank %s card", gameerr.ErrInvalidConfiguration, cat)
			}
			if prev, dup := seen[card]; dup {
				if prev == cat {
					return fmt.Errorf("%w: %s card %q listed twice", gameerr.ErrInvalidConfiguration, cat, card)
				}
				return fmt.Errorf("%w: card %q is both a %s and a %s", gameerr.ErrInvalidConfiguration, card, prev, cat)
			}
			seen[card] = cat
		}
	}
	return nil
}

// List returns the cards of one category.
func (c Catalog) List(cat Category) []Card {
	switch cat {
	case Suspect:
		return c.Suspects
	case Location:
		return c.Locations
	case Weapon:
		return c.Weapons
	default:
		return nil
	}
}

// Size is the total number of cards across all three lists.
func (c Catalog) Size() int {
	return len(c.Suspects) + len(c.Locations) + len(c.Weapons)
}

// Solution is the hidden suspect/location/weapon triple of a room.
type Solution struct {
	Suspect  Card
	Location Card
	Weapon   Card
}

// Contains reports whether card is one of the three solution cards.
func (s Solution) Contains(card Card) bool {
	return card == s.Suspect || card == s.Location || card == s.Weapon
}

// Hand is the set of cards dealt to one player.
type Hand []Card

// Strings converts the hand for JSON payloads.
func (h Hand) Strings() []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = string(c)
	}
	return out
}

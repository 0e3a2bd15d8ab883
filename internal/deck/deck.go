package deck

import (
	"fmt"

	"github.com/lox/sleuth/internal/gameerr"
)

// RandSource is the randomness the generator needs. *rand.Rand from
// math/rand/v2 and randutil.Locked both satisfy it.
type RandSource interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// ChooseSolution picks one card per category, each uniformly and
// independently of the others.
func ChooseSolution(catalog Catalog, rng RandSource) (Solution, error) {
	for _, cat := range []Category{Suspect, Location, Weapon} {
		if len(catalog.List(cat)) == 0 {
			return Solution{}, fmt.Errorf("%w: no %s cards to choose from", gameerr.ErrInvalidConfiguration, cat)
		}
	}

	return Solution{
		Suspect:  catalog.Suspects[rng.IntN(len(catalog.Suspects))],
		Location: catalog.Locations[rng.IntN(len(catalog.Locations))],
		Weapon:   catalog.Weapons[rng.IntN(len(catalog.Weapons))],
	}, nil
}

// Remaining returns every catalog card except the solution, suspects first,
// then locations, then weapons.
func Remaining(catalog Catalog, solution Solution) []Card {
	cards := make([]Card, 0, catalog.Size())
	for _, cat := range []Category{Suspect, Location, Weapon} {
		for _, card := range catalog.List(cat) {
			if !solution.Contains(card) {
				cards = append(cards, card)
			}
		}
	}
	return cards
}

// Distribute shuffles the non-solution cards once and deals them round-robin:
// player i receives positions i, i+n, i+2n and so on. Hand sizes therefore
// differ by at most one.
func Distribute(catalog Catalog, solution Solution, players int, rng RandSource) ([]Hand, error) {
	if players < 1 {
		return nil, fmt.Errorf("%w: cannot deal to %d players", gameerr.ErrInvalidConfiguration, players)
	}

	cards := Remaining(catalog, solution)
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	hands := make([]Hand, players)
	for i := range hands {
		hands[i] = make(Hand, 0, len(cards)/players+1)
	}
	for i, card := range cards {
		hands[i%players] = append(hands[i%players], card)
	}
	return hands, nil
}

// Dealer binds a catalog to a random source. It is what a room calls to
// redeal after its roster changes.
type Dealer struct {
	catalog Catalog
	rng     RandSource
}

// NewDealer validates catalog and returns a Dealer drawing from rng.
func NewDealer(catalog Catalog, rng RandSource) (*Dealer, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Dealer{catalog: catalog, rng: rng}, nil
}

// Catalog returns the dealer's card lists.
func (d *Dealer) Catalog() Catalog {
	return d.catalog
}

// ChooseSolution picks a new room's solution.
func (d *Dealer) ChooseSolution() (Solution, error) {
	return ChooseSolution(d.catalog, d.rng)
}

// Deal reshuffles and redeals the whole deck for players hands. Earlier deals
// are not consulted.
func (d *Dealer) Deal(solution Solution, players int) ([]Hand, error) {
	return Distribute(d.catalog, solution, players, d.rng)
}

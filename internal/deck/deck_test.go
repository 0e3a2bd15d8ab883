package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/randutil"
)

func TestChooseSolutionMembership(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	for seed := int64(0); seed < 50; seed++ {
		sol, err := ChooseSolution(catalog, randutil.New(seed))
		require.NoError(t, err)

		assert.Contains(t, catalog.Suspects, sol.Suspect)
		assert.Contains(t, catalog.Locations, sol.Location)
		assert.Contains(t, catalog.Weapons, sol.Weapon)
	}
}

func TestChooseSolutionCoversEveryCard(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	rng := randutil.New(99)
	seen := map[Card]bool{}
	for range 2000 {
		sol, err := ChooseSolution(catalog, rng)
		require.NoError(t, err)
		seen[sol.Suspect] = true
		seen[sol.Location] = true
		seen[sol.Weapon] = true
	}
	assert.Len(t, seen, catalog.Size())
}

func TestChooseSolutionEmptyList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog Catalog
	}{
		{"no suspects", Catalog{Locations: []Card{"L1"}, Weapons: []Card{"W1"}}},
		{"no locations", Catalog{Suspects: []Card{"S1"}, Weapons: []Card{"W1"}}},
		{"no weapons", Catalog{Suspects: []Card{"S1"}, Locations: []Card{"L1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChooseSolution(tt.catalog, randutil.New(1))
			require.Error(t, err)
			assert.True(t, errors.Is(err, gameerr.ErrInvalidConfiguration))
		})
	}
}

func TestDistributePartitionsDeck(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	rng := randutil.New(2024)

	sol, err := ChooseSolution(catalog, rng)
	require.NoError(t, err)
	deckSize := catalog.Size() - 3

	for n := 1; n <= 8; n++ {
		hands, err := Distribute(catalog, sol, n, rng)
		require.NoError(t, err)
		require.Len(t, hands, n)

		seen := map[Card]int{}
		total := 0
		for _, h := range hands {
			assert.GreaterOrEqual(t, len(h), deckSize/n, "players=%d", n)
			assert.LessOrEqual(t, len(h), (deckSize+n-1)/n, "players=%d", n)
			for _, c := range h {
				seen[c]++
				total++
				assert.False(t, sol.Contains(c), "solution card %q dealt", c)
			}
		}

		assert.Equal(t, deckSize, total)
		assert.Len(t, seen, deckSize)
		for c, count := range seen {
			assert.Equal(t, 1, count, "card %q dealt %d times", c, count)
		}
	}
}

func TestDistributeRoundRobin(t *testing.T) {
	t.Parallel()

	catalog := Catalog{
		Suspects:  []Card{"S1", "S2", "S3"},
		Locations: []Card{"L1", "L2"},
		Weapons:   []Card{"W1", "W2"},
	}
	sol := Solution{Suspect: "S1", Location: "L1", Weapon: "W1"}

	// A shuffle that leaves the deck untouched exposes the dealing order.
	hands, err := Distribute(catalog, sol, 2, identityShuffle{})
	require.NoError(t, err)

	assert.Equal(t, Hand{"S2", "L2"}, hands[0])
	assert.Equal(t, Hand{"S3", "W2"}, hands[1])
}

func TestDistributeSameSeedSameDeal(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	sol := Solution{Suspect: "Mrs. White", Location: "Hall", Weapon: "Rope"}

	a, err := Distribute(catalog, sol, 4, randutil.New(5))
	require.NoError(t, err)
	b, err := Distribute(catalog, sol, 4, randutil.New(5))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDistributeInvalidPlayerCount(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -1} {
		_, err := Distribute(DefaultCatalog(), Solution{}, n, randutil.New(1))
		require.Error(t, err)
		assert.ErrorIs(t, err, gameerr.ErrInvalidConfiguration)
	}
}

func TestDistributeSingleCardDeck(t *testing.T) {
	t.Parallel()

	catalog := Catalog{
		Suspects:  []Card{"S1"},
		Locations: []Card{"L1"},
		Weapons:   []Card{"W1", "W2"},
	}
	rng := randutil.New(3)

	sol, err := ChooseSolution(catalog, rng)
	require.NoError(t, err)
	assert.Equal(t, Card("S1"), sol.Suspect)
	assert.Equal(t, Card("L1"), sol.Location)

	hands, err := Distribute(catalog, sol, 1, rng)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	require.Len(t, hands[0], 1)

	other := Card("W1")
	if sol.Weapon == "W1" {
		other = "W2"
	}
	assert.Equal(t, other, hands[0][0])
}

func TestDistributeMorePlayersThanCards(t *testing.T) {
	t.Parallel()

	catalog := Catalog{
		Suspects:  []Card{"S1"},
		Locations: []Card{"L1"},
		Weapons:   []Card{"W1", "W2"},
	}
	hands, err := Distribute(catalog, Solution{"S1", "L1", "W1"}, 3, randutil.New(1))
	require.NoError(t, err)

	sizes := []int{len(hands[0]), len(hands[1]), len(hands[2])}
	assert.ElementsMatch(t, []int{1, 0, 0}, sizes)
}

func TestCatalogValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog Catalog
		wantErr bool
	}{
		{"default", DefaultCatalog(), false},
		{"minimal", Catalog{[]Card{"S"}, []Card{"L"}, []Card{"W"}}, false},
		{"empty weapons", Catalog{[]Card{"S"}, []Card{"L"}, nil}, true},
		{"blank card", Catalog{[]Card{"S", ""}, []Card{"L"}, []Card{"W"}}, true},
		{"duplicate in list", Catalog{[]Card{"S", "S"}, []Card{"L"}, []Card{"W"}}, true},
		{"shared across lists", Catalog{[]Card{"Hall"}, []Card{"Hall"}, []Card{"W"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, gameerr.ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDealerRejectsBadCatalog(t *testing.T) {
	t.Parallel()

	_, err := NewDealer(Catalog{}, randutil.New(1))
	assert.ErrorIs(t, err, gameerr.ErrInvalidConfiguration)
}

type identityShuffle struct{}

func (identityShuffle) IntN(int) int                { return 0 }
func (identityShuffle) Shuffle(int, func(i, j int)) {}

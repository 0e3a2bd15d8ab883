package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/room"
)

const documentVersion = 1

// roomDocument is the on-disk JSON form of a room.
type roomDocument struct {
	Version   int              `json:"version"`
	Code      string           `json:"code"`
	Status    string           `json:"status"`
	Solution  tripleDocument   `json:"solution"`
	Players   []playerDocument `json:"players"`
	Hands     [][]string       `json:"hands"`
	Guesses   []guessDocument  `json:"guesses,omitempty"`
	Results   []resultDocument `json:"results,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type tripleDocument struct {
	Suspect  string `json:"suspect"`
	Location string `json:"location"`
	Weapon   string `json:"weapon"`
}

type playerDocument struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type guessDocument struct {
	Player      string         `json:"player"`
	Guess       tripleDocument `json:"guess"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

type resultDocument struct {
	Player  string         `json:"player"`
	Guess   tripleDocument `json:"guess"`
	Correct bool           `json:"correct"`
}

func guessTriple(g room.Guess) tripleDocument {
	return tripleDocument{Suspect: string(g.Suspect), Location: string(g.Location), Weapon: string(g.Weapon)}
}

func (t tripleDocument) guess() room.Guess {
	return room.Guess{Suspect: deck.Card(t.Suspect), Location: deck.Card(t.Location), Weapon: deck.Card(t.Weapon)}
}

func encodeRoom(r *room.Room) ([]byte, error) {
	doc := roomDocument{
		Version: documentVersion,
		Code:    r.Code,
		Status:  string(r.Status),
		Solution: tripleDocument{
			Suspect:  string(r.Solution.Suspect),
			Location: string(r.Solution.Location),
			Weapon:   string(r.Solution.Weapon),
		},
		Players:   make([]playerDocument, len(r.Players)),
		Hands:     make([][]string, len(r.Hands)),
		CreatedAt: r.CreatedAt,
	}
	for i, p := range r.Players {
		doc.Players[i] = playerDocument{Name: p.Name, JoinedAt: p.JoinedAt}
	}
	for i, h := range r.Hands {
		doc.Hands[i] = h.Strings()
	}
	for _, g := range r.Guesses {
		doc.Guesses = append(doc.Guesses, guessDocument{
			Player:      g.Player,
			Guess:       guessTriple(g.Guess),
			SubmittedAt: g.SubmittedAt,
		})
	}
	for _, res := range r.Results {
		doc.Results = append(doc.Results, resultDocument{
			Player:  res.Player,
			Guess:   guessTriple(res.Guess),
			Correct: res.Correct,
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func decodeRoom(data []byte) (*room.Room, error) {
	var doc roomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode room document: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("room %s: unsupported document version %d", doc.Code, doc.Version)
	}

	switch room.Status(doc.Status) {
	case room.StatusWaiting, room.StatusPlaying, room.StatusFinished:
	default:
		return nil, fmt.Errorf("room %s: unknown status %q", doc.Code, doc.Status)
	}
	if len(doc.Hands) != len(doc.Players) {
		return nil, fmt.Errorf("room %s: %d hands for %d players", doc.Code, len(doc.Hands), len(doc.Players))
	}

	r := &room.Room{
		Code:   doc.Code,
		Status: room.Status(doc.Status),
		Solution: deck.Solution{
			Suspect:  deck.Card(doc.Solution.Suspect),
			Location: deck.Card(doc.Solution.Location),
			Weapon:   deck.Card(doc.Solution.Weapon),
		},
		Players:   make([]room.Player, len(doc.Players)),
		Hands:     make([]deck.Hand, len(doc.Hands)),
		CreatedAt: doc.CreatedAt,
	}
	for i, p := range doc.Players {
		r.Players[i] = room.Player{Name: p.Name, JoinedAt: p.JoinedAt}
	}
	for i, h := range doc.Hands {
		hand := make(deck.Hand, len(h))
		for j, c := range h {
			hand[j] = deck.Card(c)
		}
		r.Hands[i] = hand
	}
	for _, g := range doc.Guesses {
		r.Guesses = append(r.Guesses, room.GuessRecord{
			Player:      g.Player,
			Guess:       g.Guess.guess(),
			SubmittedAt: g.SubmittedAt,
		})
	}
	for _, res := range doc.Results {
		r.Results = append(r.Results, room.Result{
			Player:  res.Player,
			Guess:   res.Guess.guess(),
			Correct: res.Correct,
		})
	}
	return r, nil
}

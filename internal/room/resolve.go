package room

// Result is one player's outcome once the room has finished.
type Result struct {
	Player  string
	Guess   Guess
	Correct bool
}

// Resolve finishes a playing room whose players have all guessed, scoring each
// guess against the solution in submission order. It reports whether this
// call made the transition; on a finished room it does nothing and the stored
// Results stay as they were.
func (r *Room) Resolve() bool {
	if r.Status != StatusPlaying || !r.AllGuessed() {
		return false
	}

	results := make([]Result, len(r.Guesses))
	for i, g := range r.Guesses {
		results[i] = Result{
			Player:  g.Player,
			Guess:   g.Guess,
			Correct: g.Guess.Matches(r.Solution),
		}
	}

	r.Results = results
	r.Status = StatusFinished
	return true
}

// Finished reports whether results have been revealed.
func (r *Room) Finished() bool {
	return r.Status == StatusFinished
}

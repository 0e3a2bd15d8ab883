package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/randutil"
	"github.com/lox/sleuth/internal/roomcode"
	"github.com/lox/sleuth/internal/session"
	"github.com/lox/sleuth/internal/store"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// smallCatalog keeps hands short enough to reason about in assertions.
func smallCatalog() deck.Catalog {
	return deck.Catalog{
		Suspects:  []deck.Card{"Scarlet", "Plum"},
		Locations: []deck.Card{"Hall", "Study"},
		Weapons:   []deck.Card{"Rope", "Knife"},
	}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	rng := randutil.NewLocked(randutil.New(7))
	dealer, err := deck.NewDealer(smallCatalog(), rng)
	require.NoError(t, err)

	mgr := session.NewManager(store.NewMemoryStore(), dealer, roomcode.NewGenerator(rng), testLogger())
	srv := NewServer(mgr, testLogger(), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// postJSON posts body to path and decodes the reply into out, returning the
// status code.
func postJSON(t *testing.T, ts *httptest.Server, path string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

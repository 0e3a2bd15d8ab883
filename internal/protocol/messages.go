// Package protocol defines the JSON payloads exchanged by sleuth servers and
// clients over HTTP and the websocket endpoint.
package protocol

import "time"

// MessageType identifies a websocket envelope.
type MessageType string

const (
	// Client -> Server
	TypeCreateRoom MessageType = "create_room"
	TypeJoinRoom   MessageType = "join_room"
	TypeStartGame  MessageType = "start_game"
	TypeMakeGuess  MessageType = "make_guess"
	TypeGameStatus MessageType = "game_status"
	TypeHand       MessageType = "hand"
	TypeGameData   MessageType = "game_data"

	// Server -> Client
	TypeError MessageType = "error"
)

// ResultType names the reply to a request of type t.
func ResultType(t MessageType) MessageType {
	return t + "_result"
}

// Client -> Server payloads

type CreateRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type JoinRoomRequest struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

type StartGameRequest struct {
	RoomCode string `json:"room_code"`
}

// Triple is a suspect/location/weapon combination, used for guesses and the
// revealed solution.
type Triple struct {
	Suspect  string `json:"suspect"`
	Location string `json:"location"`
	Weapon   string `json:"weapon"`
}

type MakeGuessRequest struct {
	RoomCode   string  `json:"room_code"`
	PlayerName string  `json:"player_name"`
	Guess      *Triple `json:"guess"`
}

// GameStatusRequest and HandRequest are only used over the websocket; HTTP
// carries these fields in the path.
type GameStatusRequest struct {
	RoomCode string `json:"room_code"`
}

type HandRequest struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

// Server -> Client payloads

type CreateRoomResponse struct {
	RoomCode   string   `json:"room_code"`
	PlayerName string   `json:"player_name"`
	Cards      []string `json:"cards"`
}

type JoinRoomResponse struct {
	RoomCode   string   `json:"room_code"`
	PlayerName string   `json:"player_name"`
	Cards      []string `json:"cards"`
	Players    []string `json:"players"`
}

type StartGameResponse struct {
	Message string   `json:"message"`
	Players []string `json:"players"`
	Status  string   `json:"status"`
}

type MakeGuessResponse struct {
	Message string `json:"message"`
}

// Result is one player's revealed outcome.
type Result struct {
	Player  string `json:"player"`
	Guess   Triple `json:"guess"`
	Correct bool   `json:"correct"`
}

type GameStatusResponse struct {
	RoomCode     string    `json:"room_code"`
	Players      []string  `json:"players"`
	Status       string    `json:"status"`
	GuessesCount int       `json:"guesses_count"`
	TotalPlayers int       `json:"total_players"`
	AllGuessed   bool      `json:"all_guessed"`
	CreatedAt    time.Time `json:"created_at"`
	Solution     *Triple   `json:"solution,omitempty"`
	Results      []Result  `json:"results,omitempty"`
}

type HandResponse struct {
	RoomCode   string   `json:"room_code"`
	PlayerName string   `json:"player_name"`
	Cards      []string `json:"cards"`
}

type GameDataResponse struct {
	Suspects  []string `json:"suspects"`
	Locations []string `json:"locations"`
	Weapons   []string `json:"weapons"`
}

type RoomSummary struct {
	RoomCode     string    `json:"room_code"`
	Status       string    `json:"status"`
	TotalPlayers int       `json:"total_players"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrorResponse is the body of every failed request. Code is a gameerr kind.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

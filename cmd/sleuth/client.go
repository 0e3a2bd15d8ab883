package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/sleuth/cmd/sleuth/shared"
	"github.com/lox/sleuth/internal/client"
	"github.com/lox/sleuth/internal/protocol"
	"github.com/lox/sleuth/internal/tui"
)

// ClientFlags holds connection settings shared by the client commands.
type ClientFlags struct {
	Config    string `short:"c" default:"sleuth-client.hcl" help:"Path to client HCL configuration file"`
	ServerURL string `name:"server" short:"s" env:"SLEUTH_SERVER" help:"Server URL (overrides config)"`
	LogLevel  string `default:"warn" help:"Log level"`
}

// PlayerFlags names the acting player, falling back to the config file.
type PlayerFlags struct {
	Name string `short:"n" help:"Player name (overrides config)"`
}

type clientSession struct {
	api    *client.Client
	cfg    *client.Config
	logger *log.Logger
}

func (f ClientFlags) connect() (*clientSession, error) {
	logger, err := shared.SetupLogger(f.LogLevel, "text")
	if err != nil {
		return nil, err
	}

	cfg, err := client.LoadConfig(f.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if f.ServerURL != "" {
		cfg.Server.URL = f.ServerURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api, err := client.NewClient(cfg.Server.URL, cfg.Timeout(), logger)
	if err != nil {
		return nil, err
	}
	return &clientSession{api: api, cfg: cfg, logger: logger}, nil
}

func (s *clientSession) playerName(p PlayerFlags) (string, error) {
	if p.Name != "" {
		return p.Name, nil
	}
	if s.cfg.Player.Name != "" {
		return s.cfg.Player.Name, nil
	}
	return "", errors.New("player name is required: pass --name or set player.name in the config")
}

func (s *clientSession) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.Timeout())
}

type CreateCmd struct {
	ClientFlags
	PlayerFlags
}

func (c *CreateCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	name, err := s.playerName(c.PlayerFlags)
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.api.CreateRoom(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", tui.LabelStyle.Render("Room code:"), tui.SolutionStyle.Render(resp.RoomCode))
	fmt.Printf("%s %s\n", tui.LabelStyle.Render("Your cards:"), tui.RenderCards(resp.Cards))
	return nil
}

type JoinCmd struct {
	ClientFlags
	PlayerFlags
	Code string `arg:"" help:"Room code"`
}

func (c *JoinCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	name, err := s.playerName(c.PlayerFlags)
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.api.JoinRoom(ctx, c.Code, name)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", tui.SuccessStyle.Render("Joined"), resp.RoomCode)
	fmt.Printf("%s %v\n", tui.LabelStyle.Render("Players:"), resp.Players)
	fmt.Printf("%s %s\n", tui.LabelStyle.Render("Your cards:"), tui.RenderCards(resp.Cards))
	fmt.Println(tui.InfoStyle.Render("Cards are redealt whenever someone joins; check `sleuth hand` before guessing."))
	return nil
}

type StartCmd struct {
	ClientFlags
	Code string `arg:"" help:"Room code"`
}

func (c *StartCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.api.StartGame(ctx, c.Code)
	if err != nil {
		return err
	}
	fmt.Printf("%s with %v\n", tui.SuccessStyle.Render(resp.Message), resp.Players)
	return nil
}

type GuessCmd struct {
	ClientFlags
	PlayerFlags
	Code     string `arg:"" help:"Room code"`
	Suspect  string `required:"" help:"Suspect"`
	Location string `required:"" help:"Location"`
	Weapon   string `required:"" help:"Weapon"`
}

func (c *GuessCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	name, err := s.playerName(c.PlayerFlags)
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	guess := protocol.Triple{Suspect: c.Suspect, Location: c.Location, Weapon: c.Weapon}
	resp, err := s.api.MakeGuess(ctx, c.Code, name, guess)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", tui.SuccessStyle.Render(resp.Message), tui.RenderTriple(guess))
	return nil
}

type StatusCmd struct {
	ClientFlags
	Code string `arg:"" help:"Room code"`
}

func (c *StatusCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.api.Status(ctx, c.Code)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderStatus(resp))
	return nil
}

type HandCmd struct {
	ClientFlags
	PlayerFlags
	Code string `arg:"" help:"Room code"`
}

func (c *HandCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	name, err := s.playerName(c.PlayerFlags)
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.api.Hand(ctx, c.Code, name)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderCards(resp.Cards))
	return nil
}

type CardsCmd struct {
	ClientFlags
}

func (c *CardsCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.api.GameData(ctx)
	if err != nil {
		return err
	}
	fmt.Println(tui.RenderCatalog(resp))
	return nil
}

type RoomsCmd struct {
	ClientFlags
}

func (c *RoomsCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	ctx, cancel := s.context()
	defer cancel()

	rooms, err := s.api.Rooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		fmt.Println(tui.InfoStyle.Render("No rooms"))
		return nil
	}
	for _, r := range rooms {
		fmt.Printf("%s  %-8s  %d players  %s\n", r.RoomCode, r.Status, r.TotalPlayers, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

type WatchCmd struct {
	ClientFlags
	PlayerFlags
	Code     string        `arg:"" help:"Room code"`
	Interval time.Duration `default:"2s" help:"Polling interval"`
}

func (c *WatchCmd) Run() error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	name, err := s.playerName(c.PlayerFlags)
	if err != nil {
		return err
	}

	// Keep log lines from corrupting the TUI.
	s.logger.SetLevel(log.ErrorLevel)

	model := tui.NewWatchModel(s.api, c.Code, name, c.Interval, s.logger)
	_, err = tea.NewProgram(model).Run()
	return err
}

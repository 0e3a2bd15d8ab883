package main

import (
	"github.com/alecthomas/kong"

	"github.com/lox/sleuth/internal/tui"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	NoColor bool             `help:"Disable colored output"`

	Server ServerCmd `cmd:"" help:"Run the game server"`
	Create CreateCmd `cmd:"" help:"Create a room"`
	Join   JoinCmd   `cmd:"" help:"Join a waiting room"`
	Start  StartCmd  `cmd:"" help:"Start the game in a room"`
	Guess  GuessCmd  `cmd:"" help:"Submit your guess"`
	Status StatusCmd `cmd:"" help:"Show room status"`
	Hand   HandCmd   `cmd:"" help:"Show your current cards"`
	Cards  CardsCmd  `cmd:"" help:"List the suspects, locations and weapons"`
	Rooms  RoomsCmd  `cmd:"" help:"List rooms on the server"`
	Watch  WatchCmd  `cmd:"" help:"Watch a room and guess interactively"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sleuth"),
		kong.Description("Multiplayer deduction game server and client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	if cli.NoColor {
		tui.DisableColor()
	}
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/internal/logger"
	"github.com/freeeve/salvo/pkg/battleship"
)

// gameFlags are shared by every subcommand.
type gameFlags struct {
	size       int
	fleetStr   string
	noTouch    bool
	difficulty string
	seed       int64
	debug      bool

	fleet battleship.Fleet
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	gf := &gameFlags{}
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Play, advise and benchmark the shot solver",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitWithOutput(os.Stderr)
			if gf.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			fleet, err := battleship.ParseFleet(gf.fleetStr)
			if err != nil {
				return err
			}
			if err := fleet.Validate(gf.size); err != nil {
				return err
			}
			gf.fleet = fleet
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.IntVar(&gf.size, "size", battleship.DefaultSize, "board size")
	pf.StringVar(&gf.fleetStr, "fleet", battleship.DefaultFleet.String(), "fleet lengths, comma separated")
	pf.BoolVar(&gf.noTouch, "no-touch", false, "forbid ships from touching")
	pf.StringVarP(&gf.difficulty, "strategy", "s", "hard", "shot strategy ("+strings.Join(bot.Difficulties(), ", ")+")")
	pf.Int64Var(&gf.seed, "seed", 0, "random seed (0 = random)")
	pf.BoolVar(&gf.debug, "debug", false, "enable debug logging")

	root.AddCommand(newPlayCmd(gf), newAdviseCmd(gf), newRemoteCmd(gf))
	return root
}

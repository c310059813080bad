package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/salvo/internal/bot"
)

func newRemoteCmd(gf *gameFlags) *cobra.Command {
	var (
		url   string
		name  string
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Play a game on a running server",
		Long: `Remote logs in as a guest, creates a game and fires until the fleet is
sunk. --strategy server lets the server's own solver pick every shot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bot.GameOptions{Seed: gf.seed}
			if cmd.Flags().Changed("size") {
				opts.Size = gf.size
			}
			if cmd.Flags().Changed("fleet") {
				opts.Fleet = gf.fleet
			}
			if cmd.Flags().Changed("no-touch") {
				adjacency := !gf.noTouch
				opts.Adjacency = &adjacency
			}
			orch := bot.NewOrchestrator(bot.NewClient(name, url), opts, gf.difficulty, delay)
			gameID, moves, err := orch.Run(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Str("gameId", gameID).Int("moves", moves).Msg("Bot game completed")
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:3009", "server base URL")
	cmd.Flags().StringVar(&name, "name", "salvo-bot", "guest display name")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between shots")
	return cmd
}

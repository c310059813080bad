package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/pkg/battleship"
)

func newPlayCmd(gf *gameFlags) *cobra.Command {
	var (
		ships  string
		manual bool
		delay  time.Duration
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Let a strategy sink a local fleet, drawing the board after every shot",
		Long: `Play generates a board (or takes one from --ships / --manual) and lets the
chosen strategy fire until the whole fleet is sunk.

Ship positions are "<row><col><h|v>" per ship in fleet order, e.g.
  --fleet 5,4,3 --ships "00h;22v;77h"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var board *battleship.Board
			var err error
			switch {
			case ships != "":
				board, err = boardFromEntries(gf, strings.Split(ships, ";"))
			case manual:
				board, err = promptBoard(gf, cmd.InOrStdin(), cmd.OutOrStdout())
			default:
				board, err = battleship.Generate(gf.fleet, gf.size, !gf.noTouch, bot.NewRand(gf.seed))
			}
			if err != nil {
				return err
			}
			strategy := bot.StrategyForDifficulty(gf.difficulty, gf.size, gf.fleet)
			return playBoard(cmd.Context(), cmd.OutOrStdout(), strategy, board, delay, quiet)
		},
	}
	cmd.Flags().StringVar(&ships, "ships", "", "manual ship positions separated by ';'")
	cmd.Flags().BoolVar(&manual, "manual", false, "enter ship positions interactively")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between shots")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the final board")
	return cmd
}

// boardFromEntries builds a board from one placement entry per fleet ship.
func boardFromEntries(gf *gameFlags, entries []string) (*battleship.Board, error) {
	if len(entries) != len(gf.fleet) {
		return nil, fmt.Errorf("got %d ship positions for a fleet of %d", len(entries), len(gf.fleet))
	}
	placements := make([]battleship.ShipPlacement, len(entries))
	for i, e := range entries {
		p, err := battleship.ParsePlacement(e, gf.fleet[i])
		if err != nil {
			return nil, err
		}
		placements[i] = p
	}
	return battleship.NewBoard(gf.size, placements)
}

// promptBoard asks for each ship's position until the board is valid.
func promptBoard(gf *gameFlags, in io.Reader, out io.Writer) (*battleship.Board, error) {
	sc := bufio.NewScanner(in)
	placements := make([]battleship.ShipPlacement, 0, len(gf.fleet))
	for _, length := range gf.fleet {
		for {
			fmt.Fprintf(out, "Ship of length %d (row col h|v): ", length)
			if !sc.Scan() {
				return nil, io.ErrUnexpectedEOF
			}
			p, err := battleship.ParsePlacement(sc.Text(), length)
			if err == nil {
				_, err = battleship.NewBoard(gf.size, append(placements, p))
			}
			if err != nil {
				fmt.Fprintln(out, "  ", err)
				continue
			}
			placements = append(placements, p)
			break
		}
	}
	return battleship.NewBoard(gf.size, placements)
}

func playBoard(ctx context.Context, out io.Writer, s bot.Strategy, board *battleship.Board, delay time.Duration, quiet bool) error {
	limit := board.Size() * board.Size()
	for !board.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if board.Moves() >= limit {
			return fmt.Errorf("%s left the fleet afloat after %d moves", s.Name(), board.Moves())
		}
		c, err := s.NextShot()
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintln(out, frame(s, board, &c))
		}
		res, err := board.Move(c.Row, c.Col)
		if err != nil {
			return fmt.Errorf("%s fired %s: %w", s.Name(), c, err)
		}
		if err := s.Observe(c, res); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(out, "Move %d: %s -> %s\n\n", board.Moves(), c, res)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	fmt.Fprintln(out, boxStyle.Render(renderGrid(board.Observed(), board.Occupied, nil)))
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s sank the fleet in %d moves", s.Name(), board.Moves())))
	return nil
}

// frame renders the board next to the strategy's field when it has one.
func frame(s bot.Strategy, board *battleship.Board, target *battleship.Cell) string {
	grid := renderGrid(board.Observed(), board.Occupied, target)
	fr, ok := s.(bot.FieldReporter)
	if !ok {
		return boxStyle.Render(grid)
	}
	return titleStyle.Render(modeLabel(fr.HitMode())) + "\n" + sideBySide(grid, renderHeat(fr.Field(), board.Observed()))
}

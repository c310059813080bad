package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/pkg/battleship"
)

func newAdviseCmd(gf *gameFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "advise",
		Short: "Suggest shots against a board you play elsewhere",
		Long: `Advise prints the next best cell and waits for the result you got:
  m, h or s      miss, hit or sunk for the suggested cell
  <cell> m|h|s   result for a different cell you fired instead (e.g. "3 7 h")
  q              quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy := bot.StrategyForDifficulty(gf.difficulty, gf.size, gf.fleet)
			return advise(cmd.InOrStdin(), cmd.OutOrStdout(), strategy, gf.size, len(gf.fleet))
		},
	}
}

// advise runs the suggest/report loop until every ship is reported sunk
// or the input ends.
func advise(in io.Reader, out io.Writer, s bot.Strategy, size, ships int) error {
	sc := bufio.NewScanner(in)
	grid := battleship.NewGrid(size)
	moves, sunk := 0, 0
	for sunk < ships {
		next, err := s.NextShot()
		if err != nil {
			return err
		}
		if fr, ok := s.(bot.FieldReporter); ok {
			fmt.Fprintln(out, sideBySide(renderGrid(grid, nil, &next), renderHeat(fr.Field(), grid)))
			fmt.Fprintf(out, "Next: %s  (%s)\n", next, modeLabel(fr.HitMode()))
		} else {
			fmt.Fprintln(out, boxStyle.Render(renderGrid(grid, nil, &next)))
			fmt.Fprintf(out, "Next: %s\n", next)
		}

		var c battleship.Cell
		var res battleship.Result
		for {
			fmt.Fprint(out, "Result [m/h/s, <cell> m/h/s, q]: ")
			if !sc.Scan() {
				return sc.Err()
			}
			line := strings.TrimSpace(sc.Text())
			if line == "q" || line == "quit" {
				return nil
			}
			c, res, err = parseReport(line, next)
			if err == nil && !grid.InBounds(c) {
				err = fmt.Errorf("%s is off the board", c)
			}
			if err == nil && grid.At(c) != battleship.Untried {
				err = fmt.Errorf("%s was already fired at", c)
			}
			if err != nil {
				fmt.Fprintln(out, "  ", err)
				continue
			}
			break
		}

		if err := s.Observe(c, res); err != nil {
			return fmt.Errorf("observe %s %s: %w", c, res, err)
		}
		moves++
		switch res {
		case battleship.ResultMiss:
			grid = grid.With(c, battleship.Miss)
		case battleship.ResultHit:
			grid = grid.With(c, battleship.Hit)
		case battleship.ResultSunk:
			grid = grid.With(c, battleship.Sunk)
			sunk++
		}
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("All %d ships sunk in %d moves", ships, moves)))
	return nil
}

// parseReport reads "h" for the suggested cell or "3 7 h" / "37h" for
// another one.
func parseReport(line string, suggested battleship.Cell) (battleship.Cell, battleship.Result, error) {
	fields := strings.Fields(line)
	if len(fields) == 1 && len(fields[0]) == 3 && unicode.IsDigit(rune(fields[0][0])) {
		f := fields[0]
		fields = []string{f[:2], f[2:]}
	}
	if len(fields) == 0 {
		return suggested, 0, fmt.Errorf("empty input")
	}
	res, err := battleship.ParseResult(fields[len(fields)-1])
	if err != nil {
		return suggested, 0, err
	}
	if len(fields) == 1 {
		return suggested, res, nil
	}
	c, err := battleship.ParseCell(strings.Join(fields[:len(fields)-1], " "))
	if err != nil {
		return suggested, 0, err
	}
	return c, res, nil
}

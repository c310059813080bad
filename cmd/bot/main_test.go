package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/pkg/battleship"
)

func TestParseReport(t *testing.T) {
	suggested := battleship.Cell{Row: 4, Col: 4}
	tests := []struct {
		in      string
		cell    battleship.Cell
		res     battleship.Result
		wantErr bool
	}{
		{"m", suggested, battleship.ResultMiss, false},
		{"hit", suggested, battleship.ResultHit, false},
		{"S", suggested, battleship.ResultSunk, false},
		{"3 7 h", battleship.Cell{Row: 3, Col: 7}, battleship.ResultHit, false},
		{"37h", battleship.Cell{Row: 3, Col: 7}, battleship.ResultHit, false},
		{"2,5 miss", battleship.Cell{Row: 2, Col: 5}, battleship.ResultMiss, false},
		{"", suggested, 0, true},
		{"x", suggested, 0, true},
		{"a b h", suggested, 0, true},
	}
	for _, tt := range tests {
		c, res, err := parseReport(tt.in, suggested)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseReport(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (c != tt.cell || res != tt.res) {
			t.Errorf("parseReport(%q) = %s %s, want %s %s", tt.in, c, res, tt.cell, tt.res)
		}
	}
}

func TestAdviseFollowsReportedResults(t *testing.T) {
	fleet := battleship.NewFleet(3, 2)
	board, err := battleship.Generate(fleet, 6, true, bot.NewRand(11))
	if err != nil {
		t.Fatal(err)
	}

	// A twin solver plays the board to produce the answers a human would type.
	var script strings.Builder
	twin := bot.NewSolver(6, fleet)
	for !board.Finished() {
		c, res, err := twin.Step(board)
		if err != nil {
			t.Fatalf("twin at %s: %v", c, err)
		}
		script.WriteString(res.String()[:1] + "\n")
	}

	var out bytes.Buffer
	if err := advise(strings.NewReader(script.String()), &out, bot.NewSolver(6, fleet), 6, len(fleet)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "All 2 ships sunk") {
		t.Errorf("advise did not finish:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "SEARCH MODE") {
		t.Error("expected the mode label in the output")
	}
}

func TestAdviseRejectsRepeatedCell(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("00m\n00m\n9 9 h\nq\n")
	if err := advise(in, &out, bot.NewHeuristicStrategy(6, battleship.NewFleet(3, 2)), 6, 2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "already fired at") {
		t.Error("expected the repeated cell to be rejected")
	}
	if !strings.Contains(out.String(), "off the board") {
		t.Error("expected the off-board cell to be rejected")
	}
}

func TestAdviseEndOfInput(t *testing.T) {
	var out bytes.Buffer
	if err := advise(strings.NewReader(""), &out, bot.NewRandomStrategy(5), 5, 1); err != nil {
		t.Errorf("EOF should end quietly, got %v", err)
	}
}

func TestBoardFromEntries(t *testing.T) {
	gf := &gameFlags{size: 5, fleet: battleship.NewFleet(3, 2)}
	b, err := boardFromEntries(gf, []string{"00h", "2 2 v"})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []battleship.Cell{{Row: 0, Col: 2}, {Row: 3, Col: 2}} {
		if !b.Occupied(c) {
			t.Errorf("%s should hold a ship", c)
		}
	}

	if _, err := boardFromEntries(gf, []string{"00h"}); err == nil {
		t.Error("expected a count mismatch error")
	}
	if _, err := boardFromEntries(gf, []string{"00h", "01v"}); err == nil {
		t.Error("expected overlapping ships to be rejected")
	}
	if _, err := boardFromEntries(gf, []string{"04h", "22v"}); err == nil {
		t.Error("expected a ship off the edge to be rejected")
	}
}

func TestPromptBoardRetries(t *testing.T) {
	gf := &gameFlags{size: 5, fleet: battleship.NewFleet(3, 2)}
	var out bytes.Buffer
	b, err := promptBoard(gf, strings.NewReader("00h\n01v\nnonsense\n10h\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if !b.Occupied(battleship.Cell{Row: 1, Col: 1}) {
		t.Error("second ship should sit at row 1")
	}
	if strings.Count(out.String(), "Ship of length 2") != 3 {
		t.Errorf("expected two retries:\n%s", out.String())
	}
}

func TestPlayBoardSinksFleet(t *testing.T) {
	for _, d := range []string{"hard", "easy", "random"} {
		board, err := battleship.Generate(battleship.NewFleet(3, 2), 6, true, bot.NewRand(3))
		if err != nil {
			t.Fatal(err)
		}
		var out bytes.Buffer
		s := bot.StrategyForDifficulty(d, 6, battleship.NewFleet(3, 2))
		if err := playBoard(context.Background(), &out, s, board, 0, false); err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		if !board.Finished() || !strings.Contains(out.String(), "sank the fleet") {
			t.Errorf("%s: fleet not sunk", d)
		}
	}
}

func TestPlayCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"play", "--size", "6", "--fleet", "3,2", "--ships", "00h;33v", "-q"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "hard sank the fleet") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRootRejectsBadFleet(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"play", "--size", "4", "--fleet", "5"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected a 5-ship on a 4x4 board to be rejected")
	}
}

func TestHeatLevel(t *testing.T) {
	tests := []struct {
		v, top float64
		want   int
	}{
		{0, 10, 0},
		{5, 0, 0},
		{10, 10, len(heatShades) - 1},
		{5, 10, 2},
		{20, 10, len(heatShades) - 1},
	}
	for _, tt := range tests {
		if got := heatLevel(tt.v, tt.top); got != tt.want {
			t.Errorf("heatLevel(%v, %v) = %d, want %d", tt.v, tt.top, got, tt.want)
		}
	}
}

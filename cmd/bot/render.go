package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/pkg/battleship"
)

var (
	colorWater = lipgloss.Color("#157483")
	colorMiss  = lipgloss.Color("#2C4A54")
	colorHit   = lipgloss.Color("#F4D03F")
	colorSunk  = lipgloss.Color("#E74C3C")
	colorShip  = lipgloss.Color("#BFC9CA")

	// Heat shades, coldest first.
	heatShades = []lipgloss.Color{"#0D2F39", "#104855", "#16858E", "#1D9EA3", "#2CD7C7"}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMiss)
	targetStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#16858E")).Padding(0, 1)
)

var statusGlyph = map[battleship.Status]string{
	battleship.Untried: "·",
	battleship.Miss:    "o",
	battleship.Hit:     "x",
	battleship.Sunk:    "#",
}

var statusStyle = map[battleship.Status]lipgloss.Style{
	battleship.Untried: lipgloss.NewStyle().Foreground(colorWater),
	battleship.Miss:    lipgloss.NewStyle().Foreground(colorMiss),
	battleship.Hit:     lipgloss.NewStyle().Foreground(colorHit).Bold(true),
	battleship.Sunk:    lipgloss.NewStyle().Foreground(colorSunk).Bold(true),
}

func header(size int) string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < size; c++ {
		sb.WriteString(fmt.Sprintf("%-2d", c%100))
	}
	return mutedStyle.Render(sb.String())
}

// renderGrid draws the observation grid. ships, when non-nil, reveals
// untouched ship cells; target highlights the next shot.
func renderGrid(g battleship.Grid, ships func(battleship.Cell) bool, target *battleship.Cell) string {
	lines := []string{header(g.Size())}
	for r := 0; r < g.Size(); r++ {
		var sb strings.Builder
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%2d ", r)))
		for c := 0; c < g.Size(); c++ {
			cell := battleship.Cell{Row: r, Col: c}
			st := g.At(cell)
			glyph, style := statusGlyph[st], statusStyle[st]
			if st == battleship.Untried && ships != nil && ships(cell) {
				glyph, style = "■", lipgloss.NewStyle().Foreground(colorShip)
			}
			if target != nil && *target == cell {
				style = targetStyle
			}
			sb.WriteString(style.Render(glyph) + " ")
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// renderHeat draws f with each cell shaded by its share of the field's
// maximum. Shot cells keep their status glyph.
func renderHeat(f hypothesis.Field, g battleship.Grid) string {
	top, _ := f.Max()
	lines := []string{header(f.Size())}
	for r := 0; r < f.Size(); r++ {
		var sb strings.Builder
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%2d ", r)))
		for c := 0; c < f.Size(); c++ {
			cell := battleship.Cell{Row: r, Col: c}
			if st := g.At(cell); st != battleship.Untried {
				sb.WriteString(statusStyle[st].Render(statusGlyph[st]) + " ")
				continue
			}
			shade := heatShades[heatLevel(f.At(cell), top)]
			sb.WriteString(lipgloss.NewStyle().Background(shade).Render("  "))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// heatLevel buckets v into one of the heat shades.
func heatLevel(v, top float64) int {
	if top <= 0 || v <= 0 {
		return 0
	}
	lvl := int(v / top * float64(len(heatShades)-1))
	return min(max(lvl, 0), len(heatShades)-1)
}

func modeLabel(hitMode bool) string {
	if hitMode {
		return "HIT MODE"
	}
	return "SEARCH MODE"
}

// sideBySide joins the grid and heat map for one frame.
func sideBySide(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, boxStyle.Render(left), " ", boxStyle.Render(right))
}

package battleship

import (
	"fmt"
	"strings"
)

// Result is the categorical answer to a shot.
type Result int

const (
	ResultMiss Result = iota
	ResultHit
	ResultSunk
)

func (r Result) String() string {
	switch r {
	case ResultHit:
		return "hit"
	case ResultSunk:
		return "sunk"
	default:
		return "miss"
	}
}

// ParseResult accepts the long names and the single-letter M/H/S forms.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "miss":
		return ResultMiss, nil
	case "h", "hit":
		return ResultHit, nil
	case "s", "sunk", "sink":
		return ResultSunk, nil
	}
	return 0, fmt.Errorf("unknown shot result %q", s)
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(b []byte) error {
	v, err := ParseResult(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

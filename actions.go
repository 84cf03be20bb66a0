package main

import (
	"fmt"
	"math"
)

// Action is a single-glyph traveler move.
type Action rune

// Traveler move glyphs.
const (
	ActionUp    Action = '^'
	ActionDown  Action = 'v'
	ActionLeft  Action = '<'
	ActionRight Action = '>'

	ActionUpLeft    Action = 'a'
	ActionUpRight   Action = 'b'
	ActionDownLeft  Action = 'c'
	ActionDownRight Action = 'd'

	ActionUpUpLeft      Action = 'm'
	ActionUpUpRight     Action = 'n'
	ActionUpLeftLeft    Action = 'o'
	ActionUpRightRight  Action = 'p'
	ActionDownDownLeft  Action = 'w'
	ActionDownDownRight Action = 'x'
	ActionDownLeftLeft  Action = 'y'
	ActionDownRightRight Action = 'z'

	// Cell markers that appear in action grids but are not moves.
	ActionTarget      Action = '*'
	ActionUnreachable Action = '-'
	ActionUnsolved    Action = ' '
)

func (a Action) String() string {
	return string(rune(a))
}

// IsMove reports whether the glyph is an actual traveler move
// rather than a grid marker.
func (a Action) IsMove() bool {
	_, ok := actionOffsets[a]
	return ok
}

// Offset returns the row/column displacement of the move.
func (a Action) Offset() (dr, dc int, ok bool) {
	off, ok := actionOffsets[a]
	return off.dr, off.dc, ok
}

// Heading returns the travel direction in radians. Zero radians points
// toward increasing columns; pi/2 toward decreasing rows.
func (a Action) Heading() float64 {
	return actionHeadings[a]
}

type offset struct {
	dr, dc int
}

var actionOffsets = map[Action]offset{
	ActionUp:    {-1, 0},
	ActionDown:  {1, 0},
	ActionLeft:  {0, -1},
	ActionRight: {0, 1},

	ActionUpLeft:    {-1, -1},
	ActionUpRight:   {-1, 1},
	ActionDownLeft:  {1, -1},
	ActionDownRight: {1, 1},

	ActionUpUpLeft:       {-2, -1},
	ActionUpUpRight:      {-2, 1},
	ActionUpLeftLeft:     {-1, -2},
	ActionUpRightRight:   {-1, 2},
	ActionDownDownLeft:   {2, -1},
	ActionDownDownRight:  {2, 1},
	ActionDownLeftLeft:   {1, -2},
	ActionDownRightRight: {1, 2},
}

// Headings of the 16-way moves. The knight-style moves use the midpoint
// between their two flanking 8-way headings.
var actionHeadings = map[Action]float64{
	ActionRight:     0,
	ActionUpRight:   math.Pi / 4,
	ActionUp:        math.Pi / 2,
	ActionUpLeft:    math.Pi * 0.75,
	ActionLeft:      math.Pi,
	ActionDownLeft:  math.Pi * 1.25,
	ActionDown:      math.Pi * 1.5,
	ActionDownRight: math.Pi * 1.75,

	ActionUpUpLeft:       math.Pi * 0.625,
	ActionUpUpRight:      math.Pi * 0.375,
	ActionUpLeftLeft:     math.Pi * 0.875,
	ActionUpRightRight:   math.Pi * 0.125,
	ActionDownDownLeft:   math.Pi * 1.375,
	ActionDownDownRight:  math.Pi * 1.625,
	ActionDownLeftLeft:   math.Pi * 1.125,
	ActionDownRightRight: math.Pi * 1.875,

	ActionTarget:      0,
	ActionUnreachable: 0,
	ActionUnsolved:    0,
}

// TravelType selects the traveler's discrete action space.
type TravelType int

const (
	Travel4Way TravelType = iota
	Travel8Way
	Travel16Way
)

func (t TravelType) String() string {
	switch t {
	case Travel4Way:
		return "4way"
	case Travel8Way:
		return "8way"
	case Travel16Way:
		return "16way"
	default:
		return "unknown"
	}
}

// ParseTravelType parses a travel type name.
func ParseTravelType(s string) (TravelType, error) {
	switch s {
	case "4way":
		return Travel4Way, nil
	case "8way":
		return Travel8Way, nil
	case "16way":
		return Travel16Way, nil
	default:
		return Travel4Way, fmt.Errorf("unknown travel type: %q", s)
	}
}

// ActionSpace returns the ordered move set of the travel type.
func (t TravelType) ActionSpace() []Action {
	switch t {
	case Travel4Way:
		return []Action{ActionUp, ActionDown, ActionLeft, ActionRight}
	case Travel8Way:
		return []Action{
			ActionUp, ActionDown, ActionLeft, ActionRight,
			ActionUpLeft, ActionUpRight, ActionDownLeft, ActionDownRight,
		}
	case Travel16Way:
		return []Action{
			ActionUp, ActionDown, ActionLeft, ActionRight,
			ActionUpLeft, ActionUpRight, ActionDownLeft, ActionDownRight,
			ActionUpUpLeft, ActionUpUpRight, ActionUpLeftLeft, ActionUpRightRight,
			ActionDownDownLeft, ActionDownDownRight, ActionDownLeftLeft, ActionDownRightRight,
		}
	default:
		return nil
	}
}

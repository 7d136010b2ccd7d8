// Package game contains the backgammon values exchanged with the engine.
// All functions are pure.
//
// A position is always seen from the player on roll, called x. Index 1..24
// are board points, 25 is x's bar and 0 is o's bar. x checkers are positive
// counts, o checkers negative. x moves from 24 towards 1 and bears off from
// its home board 1..6.
package game

import (
	"github.com/artpar/wildgate/domain/failure"
)

const (
	// Checkers is the number of checkers per side.
	Checkers = 15
	// XBar is the index of x's bar.
	XBar = 25
	// OBar is the index of o's bar.
	OBar = 0
)

// Position is a board from the view of the player on roll.
type Position struct {
	Pips [26]int `json:"pips" validate:"dive,min=-15,max=15" doc:"Checkers per index. 1..24 are points, 25 is x's bar, 0 is o's bar. x is positive, o negative."`
	XOff int     `json:"x_off,omitempty" validate:"gte=0,lte=15" doc:"Checkers x has borne off. Derived from pips when omitted."`
	OOff int     `json:"o_off,omitempty" validate:"gte=0,lte=15" doc:"Checkers o has borne off. Derived from pips when omitted."`
}

// Starting returns the opening position.
func Starting() Position {
	var p Position
	p.Pips[24], p.Pips[13], p.Pips[8], p.Pips[6] = 2, 5, 3, 5
	p.Pips[1], p.Pips[12], p.Pips[17], p.Pips[19] = -2, -5, -3, -5
	return p
}

var named = map[string]func() Position{
	"starting": Starting,
}

// Named returns the position registered under name.
func Named(name string) (Position, error) {
	fn, ok := named[name]
	if !ok {
		return Position{}, failure.New(failure.NotFound, "no position named %q", name).With("name", name)
	}
	return fn().Normalize(), nil
}

// Names lists the named positions.
func Names() []string {
	return []string{"starting"}
}

// OnBoard returns the checkers each side still has on the board or the bar.
func (p Position) OnBoard() (x, o int) {
	for _, n := range p.Pips {
		if n > 0 {
			x += n
		} else {
			o -= n
		}
	}
	return x, o
}

// Normalize fills in the borne off counts.
func (p Position) Normalize() Position {
	x, o := p.OnBoard()
	p.XOff = Checkers - x
	p.OOff = Checkers - o
	return p
}

// Validate checks the rules a well-shaped position can still break.
func (p Position) Validate() error {
	x, o := p.OnBoard()
	switch {
	case x > Checkers:
		return failure.New(failure.Unprocessable, "x has %d checkers on the board, at most %d are allowed", x, Checkers).
			With("side", "x").With("checkers", x)
	case o > Checkers:
		return failure.New(failure.Unprocessable, "o has %d checkers on the board, at most %d are allowed", o, Checkers).
			With("side", "o").With("checkers", o)
	case p.Pips[XBar] < 0:
		return failure.New(failure.Unprocessable, "o checkers cannot be on x's bar").With("index", XBar)
	case p.Pips[OBar] > 0:
		return failure.New(failure.Unprocessable, "x checkers cannot be on o's bar").With("index", OBar)
	case x == 0 && o == 0:
		return failure.New(failure.Unprocessable, "both sides have borne off every checker")
	}
	if p.XOff != 0 && p.XOff != Checkers-x {
		return failure.New(failure.Unprocessable, "x_off is %d but the board leaves %d", p.XOff, Checkers-x).
			With("side", "x")
	}
	if p.OOff != 0 && p.OOff != Checkers-o {
		return failure.New(failure.Unprocessable, "o_off is %d but the board leaves %d", p.OOff, Checkers-o).
			With("side", "o")
	}
	return nil
}

// SwitchSides returns the position as seen by the opponent.
func (p Position) SwitchSides() Position {
	var s Position
	for i, n := range p.Pips {
		s.Pips[len(p.Pips)-1-i] = -n
	}
	s.XOff, s.OOff = p.OOff, p.XOff
	return s
}

// PipCount is the number of pips each side needs to bear off.
type PipCount struct {
	X int `json:"x" validate:"gte=0" doc:"Pips x needs to bear off."`
	O int `json:"o" validate:"gte=0" doc:"Pips o needs to bear off."`
}

// PipCount returns the pip count of both sides.
func (p Position) PipCount() PipCount {
	var c PipCount
	for i, n := range p.Pips {
		if n > 0 {
			c.X += n * i
		} else {
			c.O -= n * (XBar - i)
		}
	}
	return c
}

// Result is the outcome of a finished game from x's view.
type Result int

const (
	WinNormal Result = iota
	WinGammon
	WinBackgammon
	LoseNormal
	LoseGammon
	LoseBackgammon
)

// Result reports the outcome when one side has borne off everything.
func (p Position) Result() (Result, bool) {
	x, o := p.OnBoard()
	switch {
	case x == 0 && o > 0:
		if o < Checkers {
			return WinNormal, true
		}
		for i := OBar; i <= 6; i++ {
			if p.Pips[i] < 0 {
				return WinBackgammon, true
			}
		}
		return WinGammon, true
	case o == 0 && x > 0:
		r, _ := p.SwitchSides().Result()
		return r + LoseNormal, true
	}
	return 0, false
}

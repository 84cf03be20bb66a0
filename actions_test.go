package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_Offset(t *testing.T) {
	tests := []struct {
		action Action
		dr, dc int
	}{
		{ActionUp, -1, 0},
		{ActionDown, 1, 0},
		{ActionLeft, 0, -1},
		{ActionRight, 0, 1},
		{ActionUpLeft, -1, -1},
		{ActionDownRight, 1, 1},
		{ActionUpUpLeft, -2, -1},
		{ActionUpUpRight, -2, 1},
		{ActionUpLeftLeft, -1, -2},
		{ActionUpRightRight, -1, 2},
		{ActionDownDownLeft, 2, -1},
		{ActionDownDownRight, 2, 1},
		{ActionDownLeftLeft, 1, -2},
		{ActionDownRightRight, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			dr, dc, ok := tt.action.Offset()
			require.True(t, ok)
			assert.Equal(t, tt.dr, dr)
			assert.Equal(t, tt.dc, dc)
		})
	}
}

func TestAction_Offset_Markers(t *testing.T) {
	for _, a := range []Action{ActionTarget, ActionUnreachable, ActionUnsolved} {
		_, _, ok := a.Offset()
		assert.False(t, ok, "marker %q should have no offset", a)
		assert.False(t, a.IsMove())
	}
}

func TestAction_Heading(t *testing.T) {
	tests := []struct {
		action  Action
		heading float64
	}{
		{ActionRight, 0},
		{ActionUp, math.Pi / 2},
		{ActionLeft, math.Pi},
		{ActionDown, math.Pi * 1.5},
		{ActionUpRight, math.Pi / 4},
		{ActionUpUpLeft, math.Pi * 0.625},
		{ActionUpUpRight, math.Pi * 0.375},
		{ActionUpLeftLeft, math.Pi * 0.875},
		{ActionDownRightRight, math.Pi * 1.875},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			assert.InDelta(t, tt.heading, tt.action.Heading(), 1e-12)
		})
	}
}

func TestParseTravelType(t *testing.T) {
	tests := []struct {
		input    string
		expected TravelType
		wantErr  bool
	}{
		{"4way", Travel4Way, false},
		{"8way", Travel8Way, false},
		{"16way", Travel16Way, false},
		{"diagonal", Travel4Way, true},
		{"", Travel4Way, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTravelType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTravelType_ActionSpace(t *testing.T) {
	assert.Len(t, Travel4Way.ActionSpace(), 4)
	assert.Len(t, Travel8Way.ActionSpace(), 8)
	assert.Len(t, Travel16Way.ActionSpace(), 16)

	// The wider spaces extend the narrower ones.
	for _, a := range Travel4Way.ActionSpace() {
		assert.Contains(t, Travel8Way.ActionSpace(), a)
	}
	for _, a := range Travel8Way.ActionSpace() {
		assert.Contains(t, Travel16Way.ActionSpace(), a)
	}

	for _, a := range Travel16Way.ActionSpace() {
		assert.True(t, a.IsMove(), "action %q should be a move", a)
	}
}

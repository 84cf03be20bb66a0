package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// WriteGridCSV stores a float grid as comma-separated rows. +Inf
// cells serialize as "Inf".
func WriteGridCSV(g *Grid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := make([]string, g.Cols())
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			v := g.At(r, c)
			if math.IsInf(v, 1) {
				row[c] = "Inf"
			} else {
				row[c] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write grid row %d: %w", r, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush grid: %w", err)
	}
	return nil
}

// WriteActionGrid stores an action grid as glyph rows, one character
// per cell.
func WriteActionGrid(a *ActionGrid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create action file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for r := 0; r < a.Rows(); r++ {
		for c := 0; c < a.Cols(); c++ {
			if _, err := w.WriteRune(rune(a.At(r, c))); err != nil {
				return fmt.Errorf("write action cell (%d,%d): %w", r, c, err)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write action row %d: %w", r, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush actions: %w", err)
	}
	return nil
}

// ReadActionGrid loads an action grid written by WriteActionGrid.
func ReadActionGrid(path string) (*ActionGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read action file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("empty action file: %s", path)
	}

	cols := len([]rune(lines[0]))
	grid := NewActionGrid(len(lines), cols, ActionUnsolved)
	for r, line := range lines {
		runes := []rune(line)
		if len(runes) != cols {
			return nil, fmt.Errorf("ragged action row %d: %d cells, want %d", r, len(runes), cols)
		}
		for c, ch := range runes {
			grid.Set(r, c, Action(ch))
		}
	}
	return grid, nil
}

// WritePathCSV stores extracted waypoints as row,col lines.
func WritePathCSV(path []Cell, file string) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("create path file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row", "col"}); err != nil {
		return fmt.Errorf("write path header: %w", err)
	}
	for i, c := range path {
		if err := w.Write([]string{strconv.Itoa(c.Row), strconv.Itoa(c.Col)}); err != nil {
			return fmt.Errorf("write waypoint %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush path: %w", err)
	}
	return nil
}

// WriteArtifacts stores every requested planner output. Empty paths
// are skipped; failures are aggregated so one bad path does not stop
// the remaining artifacts.
func WriteArtifacts(res *Result, out OutputsConfig) error {
	var errAll error

	write := func(name, path string, fn func(string) error) {
		if path == "" {
			return
		}
		if err := fn(path); err != nil {
			multierr.AppendInto(&errAll, fmt.Errorf("%s: %w", name, err))
		}
	}

	write("cost-to-go", out.CostFile, func(p string) error { return WriteGridCSV(res.Cost2Go, p) })
	write("work-to-go", out.WorkFile, func(p string) error { return WriteGridCSV(res.Work2Go, p) })
	write("actions", out.ActionFile, func(p string) error { return WriteActionGrid(res.Actions, p) })
	write("u-action", out.UActionFile, func(p string) error { return WriteGridCSV(res.UAction, p) })
	write("v-action", out.VActionFile, func(p string) error { return WriteGridCSV(res.VAction, p) })
	write("history", out.HistoryFile, func(p string) error { return WriteHistoryCSV(res.History, p) })

	return errAll
}

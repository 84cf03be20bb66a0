package main

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// costTolerance is the cost change below which a cell counts as stable.
const costTolerance = 1e-9

// EngineState tracks the solver lifecycle.
type EngineState int32

const (
	EngineStateIdle EngineState = iota
	EngineStateStarting
	EngineStateSolving
	EngineStateStopping
)

func (s EngineState) String() string {
	switch s {
	case EngineStateIdle:
		return "idle"
	case EngineStateStarting:
		return "starting"
	case EngineStateSolving:
		return "solving"
	case EngineStateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Result holds the solved planning grids.
type Result struct {
	Cost2Go    *Grid
	Work2Go    *Grid
	Actions    *ActionGrid
	UAction    *Grid
	VAction    *Grid
	Iterations int
	History    []IterationRecord
}

// Engine runs the dynamic-programming sweep over the map: every free
// cell inside the solve window gets its game solved against the
// worst-case disturbance, seeded at the target and propagated outward
// until the grids stop changing or the iteration budget runs out.
type Engine struct {
	occ      *OccupancyGrid
	fields   *FieldSet
	traveler *Traveler
	bounds   Bounds
	solver   GameSolver
	samples  int

	state    atomic.Int32
	progress *ProgressTracker

	logger *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSamples sets the disturbance samples per force.
func WithSamples(n int) EngineOption {
	return func(e *Engine) {
		if n >= 2 {
			e.samples = n
		}
	}
}

// WithBounds restricts solving to a window of the map.
func WithBounds(b Bounds) EngineOption {
	return func(e *Engine) { e.bounds = b }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds a planning engine.
func NewEngine(occ *OccupancyGrid, fields *FieldSet, traveler *Traveler, solver GameSolver, opts ...EngineOption) *Engine {
	e := &Engine{
		occ:      occ,
		fields:   fields,
		traveler: traveler,
		bounds:   occ.FullBounds(),
		solver:   solver,
		samples:  defaultDisturbanceSamples,
		progress: NewProgressTracker(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine state.
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// Progress returns the live progress tracker.
func (e *Engine) Progress() *ProgressTracker {
	return e.progress
}

// Solve runs up to maxIterations full sweeps and returns the solved
// grids. It stops early once a sweep changes nothing, and returns the
// partial result with the context error when cancelled mid-sweep.
func (e *Engine) Solve(ctx context.Context, maxIterations int) (*Result, error) {
	if !e.state.CompareAndSwap(int32(EngineStateIdle), int32(EngineStateStarting)) {
		return nil, fmt.Errorf("engine already solving")
	}
	defer e.state.Store(int32(EngineStateIdle))

	if maxIterations < 1 {
		maxIterations = 1
	}
	if err := e.traveler.CheckPlacement(e.occ, e.bounds); err != nil {
		return nil, err
	}

	rows, cols := e.occ.Rows(), e.occ.Cols()
	res := &Result{
		Cost2Go: NewGrid(rows, cols),
		Work2Go: NewGrid(rows, cols),
		Actions: NewActionGrid(rows, cols, ActionUnsolved),
		UAction: NewGrid(rows, cols),
		VAction: NewGrid(rows, cols),
	}
	res.Cost2Go.Fill(math.Inf(1))
	// The sweep never visits obstacle cells, so mark them up front.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if e.occ.Blocked(r, c) {
				res.Actions.Set(r, c, ActionUnreachable)
			}
		}
	}

	e.progress.Reset(maxIterations)
	e.state.Store(int32(EngineStateSolving))
	e.logger.Info("solving",
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("forces", e.fields.Count()),
		zap.Stringer("travel", e.traveler.Travel),
		zap.Stringer("method", e.solver.Method()),
		zap.Int("max_iterations", maxIterations),
	)

	start := time.Now()
	for k := 0; k < maxIterations; k++ {
		iterStart := time.Now()
		visited, changed, maxDelta, err := e.sweep(ctx, res)

		rec := IterationRecord{
			Iteration: k + 1,
			Visited:   visited,
			Changed:   changed,
			MaxDelta:  maxDelta,
			Reachable: e.reachableCount(res.Cost2Go),
			Elapsed:   time.Since(iterStart),
		}
		res.History = append(res.History, rec)
		res.Iterations = k + 1
		e.progress.Record(rec)

		if err != nil {
			e.state.Store(int32(EngineStateStopping))
			return res, fmt.Errorf("sweep %d interrupted: %w", k+1, err)
		}

		e.logger.Info("iteration complete",
			zap.Int("iteration", k+1),
			zap.Int("visited", visited),
			zap.Int("changed", changed),
			zap.Float64("max_delta", maxDelta),
		)
		if changed == 0 {
			e.logger.Info("converged early", zap.Int("iteration", k+1))
			break
		}
	}

	e.state.Store(int32(EngineStateStopping))
	e.logger.Info("solve complete",
		zap.Int("iterations", res.Iterations),
		zap.Int("reachable", e.reachableCount(res.Cost2Go)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// sweep runs one breadth-first pass from the target, re-solving each
// visited cell.
func (e *Engine) sweep(ctx context.Context, res *Result) (visited, changed int, maxDelta float64, err error) {
	queue := []Cell{e.traveler.Target}
	seen := map[Cell]struct{}{e.traveler.Target: {}}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return visited, changed, maxDelta, ctx.Err()
		default:
		}

		c := queue[0]
		queue = queue[1:]
		visited++

		before := res.Cost2Go.At(c.Row, c.Col)
		if err := e.solveCell(c, res); err != nil {
			return visited, changed, maxDelta, err
		}
		after := res.Cost2Go.At(c.Row, c.Col)
		switch {
		case math.IsInf(before, 1) && !math.IsInf(after, 1):
			// Newly priced cells count as changes but stay out of
			// the delta so convergence plots remain finite.
			changed++
		case !math.IsInf(before, 1) && !math.IsInf(after, 1):
			if delta := math.Abs(after - before); delta > costTolerance {
				changed++
				if delta > maxDelta {
					maxDelta = delta
				}
			}
		}

		for _, m := range Neighbors(c, e.occ) {
			if !e.bounds.Contains(m.To) {
				continue
			}
			if _, ok := seen[m.To]; ok {
				continue
			}
			seen[m.To] = struct{}{}
			queue = append(queue, m.To)
		}
	}
	return visited, changed, maxDelta, nil
}

// solveCell prices one cell. The target stays at zero cost;
// everything else gets its game solved against the best destination
// costs known so far.
func (e *Engine) solveCell(c Cell, res *Result) error {
	if c == e.traveler.Target {
		res.Cost2Go.Set(c.Row, c.Col, 0)
		res.Actions.Set(c.Row, c.Col, ActionTarget)
		return nil
	}

	game := buildCellGame(c, e.occ, e.fields, e.traveler, res.Cost2Go, e.samples)
	if game == nil {
		// No neighbor is priced yet; later sweeps may reach it.
		res.Cost2Go.Set(c.Row, c.Col, math.Inf(1))
		res.Actions.Set(c.Row, c.Col, ActionUnreachable)
		return nil
	}

	sol, err := e.solver.Solve(game.payoff)
	if err != nil {
		return fmt.Errorf("cell %v: %w", c, err)
	}

	res.Cost2Go.Set(c.Row, c.Col, sol.Value)
	res.Work2Go.Set(c.Row, c.Col, game.work.At(sol.RowPolicy, sol.ColPolicy))
	res.Actions.Set(c.Row, c.Col, game.moves[sol.RowPolicy].Action)

	flow := game.disturbanceFlow(sol.ColPolicy, c, e.fields)
	res.UAction.Set(c.Row, c.Col, flow.X)
	res.VAction.Set(c.Row, c.Col, flow.Y)
	return nil
}

func (e *Engine) reachableCount(cost2go *Grid) int {
	n := 0
	for r := 0; r < cost2go.Rows(); r++ {
		for c := 0; c < cost2go.Cols(); c++ {
			if !math.IsInf(cost2go.At(r, c), 1) {
				n++
			}
		}
	}
	return n
}

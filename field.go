package main

import (
	"fmt"
)

// FieldSet holds the environment forces acting on the traveler. Each
// force is a u/v component grid pair with per-cell weight and error
// grids. All grids share the occupancy map's dimensions.
type FieldSet struct {
	U      []*Grid
	V      []*Grid
	Weight []*Grid
	Error  []*Grid
}

// Count returns the number of forces.
func (f *FieldSet) Count() int { return len(f.U) }

// BuildFieldSet loads the force grids described by the input config.
// With no component files configured the result is a single zero
// force, so a field-free plan degenerates to plain shortest cost.
func BuildFieldSet(occ *OccupancyGrid, in InputsConfig) (*FieldSet, error) {
	rows, cols := occ.Rows(), occ.Cols()

	if len(in.UComponents) != len(in.VComponents) {
		return nil, fmt.Errorf("u/v component count mismatch: %d vs %d",
			len(in.UComponents), len(in.VComponents))
	}

	fs := &FieldSet{}
	if len(in.UComponents) == 0 {
		fs.U = []*Grid{NewGrid(rows, cols)}
		fs.V = []*Grid{NewGrid(rows, cols)}
	} else {
		for i := range in.UComponents {
			u, err := LoadComponentGrid(in.UComponents[i])
			if err != nil {
				return nil, fmt.Errorf("u component %d: %w", i, err)
			}
			v, err := LoadComponentGrid(in.VComponents[i])
			if err != nil {
				return nil, fmt.Errorf("v component %d: %w", i, err)
			}
			if err := checkFieldDims(occ, u, fmt.Sprintf("u component %d", i)); err != nil {
				return nil, err
			}
			if err := checkFieldDims(occ, v, fmt.Sprintf("v component %d", i)); err != nil {
				return nil, err
			}
			fs.U = append(fs.U, u)
			fs.V = append(fs.V, v)
		}
	}

	var err error
	fs.Weight, err = buildScalarGrids(occ, in.Weights, in.WeightGrids, fs.Count(), 1)
	if err != nil {
		return nil, fmt.Errorf("weight grids: %w", err)
	}
	fs.Error, err = buildScalarGrids(occ, in.Errors, in.ErrorGrids, fs.Count(), 0)
	if err != nil {
		return nil, fmt.Errorf("error grids: %w", err)
	}
	return fs, nil
}

// buildScalarGrids resolves per-force scalar fields. Grid files take
// priority over constant values; with neither, every cell gets the
// fallback.
func buildScalarGrids(occ *OccupancyGrid, values []float64, files []string, n int, fallback float64) ([]*Grid, error) {
	rows, cols := occ.Rows(), occ.Cols()
	out := make([]*Grid, n)

	if len(files) > 0 {
		if len(files) != n {
			return nil, fmt.Errorf("%d grid files for %d forces", len(files), n)
		}
		for i, path := range files {
			g, err := ReadGridCSV(path)
			if err != nil {
				return nil, fmt.Errorf("grid %d: %w", i, err)
			}
			if err := checkFieldDims(occ, g, path); err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	}

	if len(values) > 0 {
		if len(values) != n {
			return nil, fmt.Errorf("%d values for %d forces", len(values), n)
		}
		for i, v := range values {
			out[i] = NewGridFill(rows, cols, v)
		}
		return out, nil
	}

	for i := range out {
		out[i] = NewGridFill(rows, cols, fallback)
	}
	return out, nil
}

func checkFieldDims(occ *OccupancyGrid, g *Grid, name string) error {
	if g.Rows() != occ.Rows() || g.Cols() != occ.Cols() {
		return fmt.Errorf("%s: size %dx%d does not match occupancy %dx%d",
			name, g.Rows(), g.Cols(), occ.Rows(), occ.Cols())
	}
	return nil
}

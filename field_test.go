package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempGrid(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildFieldSet_NoForces(t *testing.T) {
	occ := NewOccupancyGrid(3, 4)

	fs, err := BuildFieldSet(occ, InputsConfig{})
	require.NoError(t, err)

	require.Equal(t, 1, fs.Count())
	assert.Equal(t, 0.0, fs.U[0].At(1, 2))
	assert.Equal(t, 0.0, fs.V[0].At(1, 2))
	assert.Equal(t, 1.0, fs.Weight[0].At(0, 0), "weight falls back to 1")
	assert.Equal(t, 0.0, fs.Error[0].At(0, 0), "error falls back to 0")
}

func TestBuildFieldSet_FromFiles(t *testing.T) {
	occ := NewOccupancyGrid(2, 2)
	uFile := writeTempGrid(t, "u.txt", "1,2\n3,4\n")
	vFile := writeTempGrid(t, "v.txt", "-1,-2\n-3,-4\n")

	fs, err := BuildFieldSet(occ, InputsConfig{
		UComponents: []string{uFile},
		VComponents: []string{vFile},
		Weights:     []float64{0.5},
		Errors:      []float64{0.25},
	})
	require.NoError(t, err)

	require.Equal(t, 1, fs.Count())
	assert.Equal(t, 4.0, fs.U[0].At(1, 1))
	assert.Equal(t, -1.0, fs.V[0].At(0, 0))
	assert.Equal(t, 0.5, fs.Weight[0].At(1, 0))
	assert.Equal(t, 0.25, fs.Error[0].At(0, 1))
}

func TestBuildFieldSet_ComponentCountMismatch(t *testing.T) {
	occ := NewOccupancyGrid(2, 2)
	uFile := writeTempGrid(t, "u.txt", "0,0\n0,0\n")

	_, err := BuildFieldSet(occ, InputsConfig{
		UComponents: []string{uFile},
		VComponents: nil,
	})
	assert.Error(t, err)
}

func TestBuildFieldSet_DimensionMismatch(t *testing.T) {
	occ := NewOccupancyGrid(3, 3)
	uFile := writeTempGrid(t, "u.txt", "0,0\n0,0\n")
	vFile := writeTempGrid(t, "v.txt", "0,0\n0,0\n")

	_, err := BuildFieldSet(occ, InputsConfig{
		UComponents: []string{uFile},
		VComponents: []string{vFile},
	})
	assert.Error(t, err)
}

func TestBuildFieldSet_WeightGridOverridesConstant(t *testing.T) {
	occ := NewOccupancyGrid(2, 2)
	wFile := writeTempGrid(t, "w.txt", "1,2\n3,4\n")

	fs, err := BuildFieldSet(occ, InputsConfig{
		Weights:     []float64{9},
		WeightGrids: []string{wFile},
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, fs.Weight[0].At(1, 0), "grid files take priority over constants")
}

func TestBuildFieldSet_ScalarCountMismatch(t *testing.T) {
	occ := NewOccupancyGrid(2, 2)

	_, err := BuildFieldSet(occ, InputsConfig{
		Weights: []float64{1, 2},
	})
	assert.Error(t, err, "two weights for a single force")
}

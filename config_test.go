package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, defaultIterations, cfg.Planner.Iterations)
	assert.Equal(t, defaultSpeed, cfg.Planner.Speed)
	assert.Equal(t, "8way", cfg.Planner.Travel)
	assert.Equal(t, "williams", cfg.Planner.Method)
	assert.Equal(t, defaultDisturbanceSamples, cfg.Planner.Samples)
	assert.Equal(t, defaultGameIterations, cfg.Planner.GameIterations)
	assert.False(t, cfg.Progress.Enabled)
	assert.Equal(t, 9090, cfg.Progress.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "zero iterations",
			modify: func(c *Config) {
				c.Planner.Iterations = 0
			},
			wantErr: true,
		},
		{
			name: "negative speed",
			modify: func(c *Config) {
				c.Planner.Speed = -1
			},
			wantErr: true,
		},
		{
			name: "one sample",
			modify: func(c *Config) {
				c.Planner.Samples = 1
			},
			wantErr: true,
		},
		{
			name: "unknown travel type",
			modify: func(c *Config) {
				c.Planner.Travel = "diag"
			},
			wantErr: true,
		},
		{
			name: "unknown solver method",
			modify: func(c *Config) {
				c.Planner.Method = "simplex"
			},
			wantErr: true,
		},
		{
			name: "component count mismatch",
			modify: func(c *Config) {
				c.Inputs.UComponents = []string{"u.txt"}
			},
			wantErr: true,
		},
		{
			name: "bad bounds",
			modify: func(c *Config) {
				c.Planner.Bounds = "3,0,3,5"
			},
			wantErr: true,
		},
		{
			name: "good bounds",
			modify: func(c *Config) {
				c.Planner.Bounds = "0,0,3,5"
			},
			wantErr: false,
		},
		{
			name: "bad start cell",
			modify: func(c *Config) {
				c.Inputs.Start = "1;2"
			},
			wantErr: true,
		},
		{
			name: "bad target cell",
			modify: func(c *Config) {
				c.Inputs.Target = "x"
			},
			wantErr: true,
		},
		{
			name: "bad progress port",
			modify: func(c *Config) {
				c.Progress.Enabled = true
				c.Progress.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "bad port ignored while disabled",
			modify: func(c *Config) {
				c.Progress.Enabled = false
				c.Progress.Port = 70000
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Inputs.Start = "0,0"
	cfg.Inputs.Target = "9,9"
	cfg.Outputs.CostFile = "cost.txt"

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, cfg.SaveConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Config
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, cfg.Planner, got.Planner)
	assert.Equal(t, "0,0", got.Inputs.Start)
	assert.Equal(t, "cost.txt", got.Outputs.CostFile)
}

func TestConfig_Resolvers(t *testing.T) {
	cfg := DefaultConfig()

	travel, err := cfg.TravelType()
	require.NoError(t, err)
	assert.Equal(t, Travel8Way, travel)

	method, err := cfg.SolverMethod()
	require.NoError(t, err)
	assert.Equal(t, MethodWilliams, method)

	cfg.Planner.Travel = "16way"
	travel, err = cfg.TravelType()
	require.NoError(t, err)
	assert.Equal(t, Travel16Way, travel)
}

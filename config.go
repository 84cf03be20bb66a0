package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Solver defaults.
const (
	defaultSpeed              = 10.0
	defaultIterations         = 1
	defaultDisturbanceSamples = 10
	defaultGameIterations     = 100
)

// Config is the full planner configuration.
type Config struct {
	Planner  PlannerConfig  `json:"planner" mapstructure:"planner"`
	Inputs   InputsConfig   `json:"inputs" mapstructure:"inputs"`
	Outputs  OutputsConfig  `json:"outputs" mapstructure:"outputs"`
	Render   RenderConfig   `json:"render" mapstructure:"render"`
	Progress ProgressConfig `json:"progress" mapstructure:"progress"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// PlannerConfig controls the solver.
type PlannerConfig struct {
	// Iterations bounds the number of full sweeps.
	Iterations int `json:"iterations" mapstructure:"iterations"`
	// Speed is the traveler speed in cells per second.
	Speed float64 `json:"speed" mapstructure:"speed"`
	// Travel selects the action space: 4way, 8way or 16way.
	Travel string `json:"travel" mapstructure:"travel"`
	// Method selects the game solver: williams or minimax.
	Method string `json:"method" mapstructure:"method"`
	// Samples is the number of disturbance samples per force.
	Samples int `json:"samples" mapstructure:"samples"`
	// GameIterations is the fictitious-play round count.
	GameIterations int `json:"game_iterations" mapstructure:"game_iterations"`
	// Bounds optionally restricts solving to "r1,c1,r2,c2".
	Bounds string `json:"bounds" mapstructure:"bounds"`
	// Reuse skips solving and loads the existing action grid.
	Reuse bool `json:"reuse" mapstructure:"reuse"`
}

// InputsConfig names the environment rasters and the endpoints.
type InputsConfig struct {
	Occupancy   []string  `json:"occupancy" mapstructure:"occupancy"`
	UComponents []string  `json:"ucomponents" mapstructure:"ucomponents"`
	VComponents []string  `json:"vcomponents" mapstructure:"vcomponents"`
	Weights     []float64 `json:"weights" mapstructure:"weights"`
	WeightGrids []string  `json:"weightgrids" mapstructure:"weightgrids"`
	Errors      []float64 `json:"errors" mapstructure:"errors"`
	ErrorGrids  []string  `json:"errorgrids" mapstructure:"errorgrids"`
	// Start and Target are "row,col" cells.
	Start  string `json:"start" mapstructure:"start"`
	Target string `json:"target" mapstructure:"target"`
}

// OutputsConfig names the artifact files. Empty entries are skipped.
type OutputsConfig struct {
	CostFile    string `json:"costfile" mapstructure:"costfile"`
	WorkFile    string `json:"workfile" mapstructure:"workfile"`
	ActionFile  string `json:"actionfile" mapstructure:"actionfile"`
	UActionFile string `json:"uactionfile" mapstructure:"uactionfile"`
	VActionFile string `json:"vactionfile" mapstructure:"vactionfile"`
	HistoryFile string `json:"historyfile" mapstructure:"historyfile"`
	PathFile    string `json:"pathfile" mapstructure:"pathfile"`
	// PlotsPrefix is the extension-less prefix for plot PNGs.
	PlotsPrefix string `json:"plots" mapstructure:"plots"`
}

// RenderConfig controls the render command.
type RenderConfig struct {
	CellSize int    `json:"cell_size" mapstructure:"cell_size"`
	OutFile  string `json:"outfile" mapstructure:"outfile"`
}

// ProgressConfig controls the progress HTTP endpoint.
type ProgressConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	Port     int    `json:"port" mapstructure:"port"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Planner: PlannerConfig{
			Iterations:     defaultIterations,
			Speed:          defaultSpeed,
			Travel:         Travel8Way.String(),
			Method:         MethodWilliams.String(),
			Samples:        defaultDisturbanceSamples,
			GameIterations: defaultGameIterations,
		},
		Render: RenderConfig{
			CellSize: 8,
		},
		Progress: ProgressConfig{
			Enabled:  false,
			Endpoint: "/progress",
			Port:     9090,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

// LoadConfig reads the config file, falling back to defaults and
// applying FLOWPLAN_* environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/flowplan/")
		viper.AddConfigPath("$HOME/.flowplan/")
	}

	viper.SetEnvPrefix("FLOWPLAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file; defaults apply.
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for problems that would only
// surface mid-solve.
func (c *Config) Validate() error {
	if c.Planner.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Planner.Iterations)
	}
	if c.Planner.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", c.Planner.Speed)
	}
	if c.Planner.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", c.Planner.Samples)
	}
	if _, err := ParseTravelType(c.Planner.Travel); err != nil {
		return err
	}
	if _, err := ParseSolverMethod(c.Planner.Method); err != nil {
		return err
	}
	if len(c.Inputs.UComponents) != len(c.Inputs.VComponents) {
		return fmt.Errorf("u/v component count mismatch: %d vs %d",
			len(c.Inputs.UComponents), len(c.Inputs.VComponents))
	}
	if c.Planner.Bounds != "" {
		if _, err := ParseBounds(c.Planner.Bounds); err != nil {
			return err
		}
	}
	if c.Inputs.Start != "" {
		if _, err := ParseCell(c.Inputs.Start); err != nil {
			return err
		}
	}
	if c.Inputs.Target != "" {
		if _, err := ParseCell(c.Inputs.Target); err != nil {
			return err
		}
	}
	if c.Progress.Enabled {
		if c.Progress.Port < 1 || c.Progress.Port > 65535 {
			return fmt.Errorf("invalid progress port: %d", c.Progress.Port)
		}
	}
	return nil
}

// SaveConfig writes the config as indented JSON.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// TravelType resolves the configured travel type.
func (c *Config) TravelType() (TravelType, error) {
	return ParseTravelType(c.Planner.Travel)
}

// SolverMethod resolves the configured solver method.
func (c *Config) SolverMethod() (SolverMethod, error) {
	return ParseSolverMethod(c.Planner.Method)
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	verbose   bool
	logger    *zap.Logger
	appConfig *Config
)

// rootCmd is the command tree root.
var rootCmd = &cobra.Command{
	Use:   "flowplan",
	Short: "Grid planner for travel through uncertain force fields",
	Long: `flowplan computes cost-to-go, work-to-go and action grids for a
traveler crossing a gridded region under uncertain vector force fields.
Each cell is priced by solving a zero-sum game between the traveler and
the worst-case disturbance, propagated from the target by dynamic
programming.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = initLogger(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "generate" {
			appConfig, err = LoadConfig(cfgFile)
			if err != nil {
				appConfig = DefaultConfig()
				if cfgFile != "" {
					logger.Warn("config load failed, using defaults", zap.Error(err))
				}
			}
			if l, err := buildLogger(appConfig.Logging, verbose); err == nil {
				logger = l
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// solveCmd runs the planner.
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the planning grids",
	Long:  "Run the solver over the configured map and write the requested artifacts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		applySolveFlags(cmd, appConfig)
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return runSolve(appConfig)
	},
}

// pathCmd follows a stored action grid.
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Extract a path from an action grid",
	Long:  "Follow a stored action grid from the start cell and print or export the waypoints.",
	RunE: func(cmd *cobra.Command, args []string) error {
		actionFile, _ := cmd.Flags().GetString("actionfile")
		if actionFile == "" {
			actionFile = appConfig.Outputs.ActionFile
		}
		if actionFile == "" {
			return fmt.Errorf("no action file given")
		}
		startStr, _ := cmd.Flags().GetString("start")
		if startStr == "" {
			startStr = appConfig.Inputs.Start
		}
		start, err := ParseCell(startStr)
		if err != nil {
			return err
		}

		actions, err := ReadActionGrid(actionFile)
		if err != nil {
			return err
		}
		path, err := ExtractPath(actions, start)
		if err != nil {
			return fmt.Errorf("extract path: %w", err)
		}

		if out, _ := cmd.Flags().GetString("output"); out != "" {
			if err := WritePathCSV(path, out); err != nil {
				return err
			}
			fmt.Printf("wrote %d waypoints to %s\n", len(path), out)
			return nil
		}
		for _, c := range path {
			fmt.Println(c)
		}
		return nil
	},
}

// renderCmd draws the map and optional path to a PNG.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the map to a PNG",
	Long:  "Draw the occupancy map, optionally overlaying the path of a stored action grid.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if occList, _ := cmd.Flags().GetStringSlice("occupancy"); len(occList) > 0 {
			appConfig.Inputs.Occupancy = occList
		}
		occ, err := LoadOccupancy(appConfig.Inputs.Occupancy)
		if err != nil {
			return err
		}

		var path []Cell
		actionFile, _ := cmd.Flags().GetString("actionfile")
		startStr, _ := cmd.Flags().GetString("start")
		if startStr == "" {
			startStr = appConfig.Inputs.Start
		}
		if actionFile != "" && startStr != "" {
			start, err := ParseCell(startStr)
			if err != nil {
				return err
			}
			actions, err := ReadActionGrid(actionFile)
			if err != nil {
				return err
			}
			if path, err = ExtractPath(actions, start); err != nil {
				return fmt.Errorf("extract path: %w", err)
			}
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = appConfig.Render.OutFile
		}
		if out == "" {
			out = "map.png"
		}
		cellSize, _ := cmd.Flags().GetInt("cell-size")
		if cellSize == 0 {
			cellSize = appConfig.Render.CellSize
		}

		if err := RenderMap(occ, path, cellSize, out); err != nil {
			return err
		}
		fmt.Printf("rendered %dx%d map to %s\n", occ.Rows(), occ.Cols(), out)
		return nil
	},
}

// gridCmd groups raster inspection commands.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Raster inspection commands",
	Long:  "Inspect planner input and output rasters.",
}

// gridInfoCmd summarizes one raster file.
var gridInfoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Summarize a raster file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		occ, err := LoadOccupancy(args[0:1])
		if err != nil {
			return err
		}
		blocked := occ.BlockedCount()
		total := occ.Rows() * occ.Cols()
		fmt.Printf("%s: %d rows x %d cols, %d/%d blocked (%.1f%%)\n",
			args[0], occ.Rows(), occ.Cols(), blocked, total,
			float64(blocked)/float64(total)*100)
		return nil
	},
}

// configCmd groups config management commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
	Long:  "Validate and generate configuration files.",
}

// configValidateCmd validates the config file.
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		fmt.Println("config is valid")
		fmt.Printf("  Iterations: %d\n", cfg.Planner.Iterations)
		fmt.Printf("  Speed: %v cells/s\n", cfg.Planner.Speed)
		fmt.Printf("  Travel: %s\n", cfg.Planner.Travel)
		fmt.Printf("  Method: %s\n", cfg.Planner.Method)
		fmt.Printf("  Occupancy files: %d\n", len(cfg.Inputs.Occupancy))
		fmt.Printf("  Forces: %d\n", len(cfg.Inputs.UComponents))
		return nil
	},
}

// configGenerateCmd writes an example config.
var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an example config",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "config.json"
		}

		cfg := DefaultConfig()
		cfg.Inputs = InputsConfig{
			Occupancy:   []string{"map.txt"},
			UComponents: []string{"wind_u.txt"},
			VComponents: []string{"wind_v.txt"},
			Weights:     []float64{1},
			Errors:      []float64{0.5},
			Start:       "0,0",
			Target:      "9,9",
		}
		cfg.Outputs = OutputsConfig{
			CostFile:   "cost2go.txt",
			WorkFile:   "work2go.txt",
			ActionFile: "actions.txt",
		}

		if err := cfg.SaveConfig(output); err != nil {
			return fmt.Errorf("generate config: %w", err)
		}

		fmt.Printf("example config written to %s\n", output)
		return nil
	},
}

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowplan version %s\n", Version)
		fmt.Printf("  Build: %s\n", BuildTime)
		fmt.Printf("  Commit: %s\n", GitCommit)
	},
}

// applySolveFlags copies set solve flags over the loaded config.
func applySolveFlags(cmd *cobra.Command, cfg *Config) {
	if v, _ := cmd.Flags().GetStringSlice("occupancy"); len(v) > 0 {
		cfg.Inputs.Occupancy = v
	}
	if v, _ := cmd.Flags().GetStringSlice("ucomponents"); len(v) > 0 {
		cfg.Inputs.UComponents = v
	}
	if v, _ := cmd.Flags().GetStringSlice("vcomponents"); len(v) > 0 {
		cfg.Inputs.VComponents = v
	}
	if v, _ := cmd.Flags().GetStringSlice("weightgrids"); len(v) > 0 {
		cfg.Inputs.WeightGrids = v
	}
	if v, _ := cmd.Flags().GetStringSlice("errorgrids"); len(v) > 0 {
		cfg.Inputs.ErrorGrids = v
	}
	if v, _ := cmd.Flags().GetFloat64Slice("weights"); len(v) > 0 {
		cfg.Inputs.Weights = v
	}
	if v, _ := cmd.Flags().GetFloat64Slice("errors"); len(v) > 0 {
		cfg.Inputs.Errors = v
	}
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		cfg.Inputs.Start = v
	}
	if v, _ := cmd.Flags().GetString("target"); v != "" {
		cfg.Inputs.Target = v
	}
	if v, _ := cmd.Flags().GetFloat64("speed"); v > 0 {
		cfg.Planner.Speed = v
	}
	if v, _ := cmd.Flags().GetInt("iterations"); v > 0 {
		cfg.Planner.Iterations = v
	}
	if v, _ := cmd.Flags().GetString("travel"); v != "" {
		cfg.Planner.Travel = v
	}
	if v, _ := cmd.Flags().GetString("method"); v != "" {
		cfg.Planner.Method = v
	}
	if v, _ := cmd.Flags().GetString("bounds"); v != "" {
		cfg.Planner.Bounds = v
	}
	if v, _ := cmd.Flags().GetBool("reuse"); v {
		cfg.Planner.Reuse = true
	}
	if v, _ := cmd.Flags().GetString("costfile"); v != "" {
		cfg.Outputs.CostFile = v
	}
	if v, _ := cmd.Flags().GetString("workfile"); v != "" {
		cfg.Outputs.WorkFile = v
	}
	if v, _ := cmd.Flags().GetString("actionfile"); v != "" {
		cfg.Outputs.ActionFile = v
	}
	if v, _ := cmd.Flags().GetString("uactionfile"); v != "" {
		cfg.Outputs.UActionFile = v
	}
	if v, _ := cmd.Flags().GetString("vactionfile"); v != "" {
		cfg.Outputs.VActionFile = v
	}
	if v, _ := cmd.Flags().GetString("historyfile"); v != "" {
		cfg.Outputs.HistoryFile = v
	}
	if v, _ := cmd.Flags().GetString("pathfile"); v != "" {
		cfg.Outputs.PathFile = v
	}
	if v, _ := cmd.Flags().GetString("plots"); v != "" {
		cfg.Outputs.PlotsPrefix = v
	}
}

// runSolve loads the environment, runs the engine and writes the
// artifacts.
func runSolve(cfg *Config) error {
	occ, err := LoadOccupancy(cfg.Inputs.Occupancy)
	if err != nil {
		return err
	}
	logger.Info("map loaded",
		zap.Int("rows", occ.Rows()),
		zap.Int("cols", occ.Cols()),
		zap.Int("blocked", occ.BlockedCount()),
	)

	start, err := ParseCell(cfg.Inputs.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	target, err := ParseCell(cfg.Inputs.Target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}

	if cfg.Planner.Reuse {
		return reusePlan(cfg, start)
	}

	fields, err := BuildFieldSet(occ, cfg.Inputs)
	if err != nil {
		return err
	}

	travel, err := cfg.TravelType()
	if err != nil {
		return err
	}
	traveler, err := NewTraveler(start, target, cfg.Planner.Speed, travel)
	if err != nil {
		return err
	}

	solver, err := buildSolver(cfg)
	if err != nil {
		return err
	}

	bounds := occ.FullBounds()
	if cfg.Planner.Bounds != "" {
		if bounds, err = ParseBounds(cfg.Planner.Bounds); err != nil {
			return err
		}
	}

	engine := NewEngine(occ, fields, traveler, solver,
		WithSamples(cfg.Planner.Samples),
		WithBounds(bounds),
		WithLogger(logger.Named("engine")),
	)

	if cfg.Progress.Enabled {
		srv := NewProgressServer(engine, logger.Named("progress"))
		if err := srv.Start(cfg.Progress.Endpoint, cfg.Progress.Port); err != nil {
			logger.Warn("progress server failed to start", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := engine.Solve(ctx, cfg.Planner.Iterations)
	if err != nil {
		return err
	}

	if err := WriteArtifacts(res, cfg.Outputs); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	if cfg.Outputs.PlotsPrefix != "" {
		if err := WritePlots(res, cfg.Outputs.PlotsPrefix); err != nil {
			return fmt.Errorf("write plots: %w", err)
		}
	}

	path, err := ExtractPath(res.Actions, start)
	if err != nil {
		logger.Warn("no path from start", zap.Stringer("start", start), zap.Error(err))
		return nil
	}
	logger.Info("path found",
		zap.Int("waypoints", len(path)),
		zap.Float64("cost", PathCost(res.Cost2Go, path)),
	)
	if cfg.Outputs.PathFile != "" {
		if err := WritePathCSV(path, cfg.Outputs.PathFile); err != nil {
			return err
		}
	}
	return nil
}

// reusePlan skips solving and follows a previously stored action
// grid.
func reusePlan(cfg *Config, start Cell) error {
	if cfg.Outputs.ActionFile == "" {
		return fmt.Errorf("reuse requires an action file")
	}
	actions, err := ReadActionGrid(cfg.Outputs.ActionFile)
	if err != nil {
		return err
	}
	path, err := ExtractPath(actions, start)
	if err != nil {
		return fmt.Errorf("extract path: %w", err)
	}
	logger.Info("reused action grid",
		zap.String("actionfile", cfg.Outputs.ActionFile),
		zap.Int("waypoints", len(path)),
	)
	if cfg.Outputs.PathFile != "" {
		return WritePathCSV(path, cfg.Outputs.PathFile)
	}
	for _, c := range path {
		fmt.Println(c)
	}
	return nil
}

// buildSolver resolves the configured game solver, honoring the
// fictitious-play round count.
func buildSolver(cfg *Config) (GameSolver, error) {
	method, err := cfg.SolverMethod()
	if err != nil {
		return nil, err
	}
	if method == MethodWilliams {
		return &WilliamsSolver{Iterations: cfg.Planner.GameIterations}, nil
	}
	return GetGameSolver(method)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	solveCmd.Flags().StringSliceP("occupancy", "o", nil, "occupancy raster files (csv list)")
	solveCmd.Flags().StringSliceP("ucomponents", "u", nil, "u component raster files (csv list)")
	solveCmd.Flags().StringSliceP("vcomponents", "v", nil, "v component raster files (csv list)")
	solveCmd.Flags().Float64SliceP("weights", "w", nil, "constant force weights (csv list)")
	solveCmd.Flags().StringSlice("weightgrids", nil, "per-cell force weight grids (csv list)")
	solveCmd.Flags().Float64SliceP("errors", "e", nil, "constant force errors (csv list)")
	solveCmd.Flags().StringSlice("errorgrids", nil, "per-cell force error grids (csv list)")
	solveCmd.Flags().StringP("start", "s", "", "start cell as row,col")
	solveCmd.Flags().StringP("target", "t", "", "target cell as row,col")
	solveCmd.Flags().Float64P("speed", "l", 0, "traveler speed in cells per second")
	solveCmd.Flags().IntP("iterations", "i", 0, "number of solver iterations")
	solveCmd.Flags().String("travel", "", "action space: 4way, 8way or 16way")
	solveCmd.Flags().String("method", "", "game solver: williams or minimax")
	solveCmd.Flags().StringP("bounds", "b", "", "solve window as r1,c1,r2,c2")
	solveCmd.Flags().BoolP("reuse", "r", false, "reuse the existing action grid")
	solveCmd.Flags().StringP("costfile", "c", "", "cost-to-go output file")
	solveCmd.Flags().StringP("workfile", "x", "", "work-to-go output file")
	solveCmd.Flags().StringP("actionfile", "a", "", "action grid output file")
	solveCmd.Flags().String("uactionfile", "", "disturbance u-component output file")
	solveCmd.Flags().String("vactionfile", "", "disturbance v-component output file")
	solveCmd.Flags().String("historyfile", "", "convergence history CSV output file")
	solveCmd.Flags().String("pathfile", "", "extracted path CSV output file")
	solveCmd.Flags().String("plots", "", "plot output file prefix")

	pathCmd.Flags().StringP("actionfile", "a", "", "action grid file")
	pathCmd.Flags().StringP("start", "s", "", "start cell as row,col")
	pathCmd.Flags().StringP("output", "o", "", "waypoint CSV output file")

	renderCmd.Flags().StringSliceP("occupancy", "o", nil, "occupancy raster files (csv list)")
	renderCmd.Flags().StringP("actionfile", "a", "", "action grid file for the path overlay")
	renderCmd.Flags().StringP("start", "s", "", "start cell as row,col")
	renderCmd.Flags().String("out", "", "output PNG path")
	renderCmd.Flags().Int("cell-size", 0, "pixels per grid cell")

	configGenerateCmd.Flags().StringP("output", "o", "config.json", "output file path")

	gridCmd.AddCommand(gridInfoCmd)
	configCmd.AddCommand(configValidateCmd, configGenerateCmd)

	rootCmd.AddCommand(
		solveCmd,
		pathCmd,
		renderCmd,
		gridCmd,
		configCmd,
		versionCmd,
	)
}

func initLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// buildLogger rebuilds the logger from the logging config section.
// The verbose flag always wins over the configured level.
func buildLogger(lc LoggingConfig, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lc.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	if lc.OutputPath != "" {
		cfg.OutputPaths = []string{lc.OutputPath}
	}

	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg.Level = level
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/logging"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	preset     string
	logFile    string
	verbose    bool
	// Session overrides
	horizon   float64
	frameRate int
	realtime  bool
	setpoint  float64
	damping   float64
	force     float64
	dt        float64
	maxAccel  float64
	kp        float64
	ki        float64
	kd        float64
	// Output
	plotWidth  int
	plotHeight int
	format     string
	outPath    string
)

// main registers the commands and flags and runs the root command. With no
// subcommand it starts the interactive tuner.
func main() {
	rootCmd := &cobra.Command{
		Use:          "pidlab",
		Short:        "interactive PID tuning sandbox",
		SilenceUsage: true,
		RunE:         runInteractive,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "session config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a built-in preset")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	pf := rootCmd.PersistentFlags()
	pf.Float64Var(&horizon, "horizon", config.DefaultHorizon, "simulated time span")
	pf.Float64Var(&setpoint, "setpoint", dynamo.DefaultSetpoint, "target value")
	pf.Float64Var(&damping, "damping", dynamo.DefaultDamping, "velocity damping")
	pf.Float64Var(&force, "force", dynamo.DefaultAppliedForce, "constant applied force")
	pf.Float64Var(&dt, "dt", dynamo.DefaultTimestep, "timestep")
	pf.Float64Var(&maxAccel, "max-accel", dynamo.DefaultMaxAccel, "acceleration limit")
	pf.Float64Var(&kp, "kp", config.DefaultKp, "pid kp of the first model")
	pf.Float64Var(&ki, "ki", 0, "pid ki of the first model")
	pf.Float64Var(&kd, "kd", 0, "pid kd of the first model")

	rootCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	rootCmd.Flags().BoolVar(&realtime, "realtime", false, "start in real-time mode")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "evaluate every model over the horizon and print the responses",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	runCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width in columns")
	runCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height in rows")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "evaluate every model and export the trajectories",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json, png)")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, - for stdout (default pidlab.<format>)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODELS")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\n", name, len(cfg.Models))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, exportCmd, presetsCmd, newTuneCmd(), newSweepCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("fps") {
		cfg.FrameRate = frameRate
	}
	if flags.Changed("realtime") {
		cfg.Realtime = realtime
	}
	if flags.Changed("setpoint") {
		cfg.Environment.Setpoint = setpoint
	}
	if flags.Changed("damping") {
		cfg.Environment.Damping = damping
	}
	if flags.Changed("force") {
		cfg.Environment.AppliedForce = force
	}
	if flags.Changed("dt") {
		cfg.Environment.Timestep = dt
	}
	if flags.Changed("max-accel") {
		cfg.Environment.MaxAccel = maxAccel
	}

	if flags.Changed("kp") || flags.Changed("ki") || flags.Changed("kd") {
		if len(cfg.Models) == 0 {
			cfg.Models = append(cfg.Models, config.ModelConfig{Name: "Model 1"})
		}
		first := &cfg.Models[0]
		if flags.Changed("kp") {
			first.Kp = kp
		}
		if flags.Changed("ki") {
			first.Ki = ki
		}
		if flags.Changed("kd") {
			first.Kd = kd
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.ForTUI(logging.Options{Verbose: verbose, File: logFile})
	if err != nil {
		return err
	}
	defer log.Sync()

	reg, err := cfg.Build(log)
	if err != nil {
		return err
	}
	driver, err := sim.NewDriver(reg, sim.WithHorizon(cfg.Horizon), sim.WithLogger(log))
	if err != nil {
		return err
	}
	driver.SetRunning(cfg.Realtime)

	log.Info("starting tuner",
		zap.Int("models", reg.Len()),
		zap.Float64("horizon", cfg.Horizon),
		zap.Int("fps", cfg.FrameRate))

	p := tea.NewProgram(viz.NewApp(driver, cfg.FrameRate, log), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}

// evaluate builds the session and runs one batch evaluation of every model.
func evaluate(cmd *cobra.Command) (*config.Config, *experiment.Registry, *experiment.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logging.New(logging.Options{Verbose: verbose, File: logFile})
	if err != nil {
		return nil, nil, nil, err
	}
	defer log.Sync()

	reg, err := cfg.Build(log)
	if err != nil {
		return nil, nil, nil, err
	}

	exp := experiment.New(experiment.Config{Horizon: cfg.Horizon, Metrics: metrics.Default}, reg)
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	log.Debug("batch evaluation done", zap.Int("models", len(result.Traces)))
	return cfg, reg, result, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, reg, result, err := evaluate(cmd)
	if err != nil {
		return err
	}
	if len(result.Traces) == 0 {
		fmt.Println("no models configured")
		return nil
	}

	target := make([]float64, plotWidth)
	for i := range target {
		target[i] = result.Setpoint
	}
	data := [][]float64{target}
	colors := []asciigraph.AnsiColor{viz.CurrentTheme.Setpoint}
	for i, tr := range result.Traces {
		data = append(data, viz.Resample(tr.Samples, plotWidth, viz.XMax))
		colors = append(colors, viz.CurrentTheme.SeriesColor(i))
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(plotHeight),
		asciigraph.LowerBound(viz.YMin),
		asciigraph.UpperBound(viz.YMax),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(fmt.Sprintf("step response, setpoint %.1f, horizon %.1f", result.Setpoint, cfg.Horizon)),
	)
	fmt.Println(graph)
	fmt.Println()

	env := reg.Environment()
	fmt.Printf("damping %.3f  force %.3f  dt %.4f  max accel %.2f\n\n", env.Damping, env.AppliedForce, env.Timestep, env.MaxAccel)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tKP\tKI\tKD\tFINAL\tOVERSHOOT%\tRISE\tSETTLE\tIAE")
	for _, tr := range result.Traces {
		m, _ := reg.Model(tr.ID)
		params := m.GetParams()
		last, _ := tr.Samples.Last()
		scores := result.Metrics[tr.ID]
		fmt.Fprintf(w, "%d\t%s\t%.3g\t%.3g\t%.3g\t%.3f\t%.2f\t%s\t%s\t%.2f\n",
			tr.ID,
			tr.Name,
			params[control.ParamKp],
			params[control.ParamKi],
			params[control.ParamKd],
			last.V,
			scores["overshoot_pct"],
			formatTime(scores["rise_time"]),
			formatTime(scores["settling_time"]),
			scores["iae"],
		)
	}
	return w.Flush()
}

func formatTime(v float64) string {
	if v == metrics.NotReached {
		return "-"
	}
	return fmt.Sprintf("%.2fs", v)
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	cfg, reg, result, err := evaluate(cmd)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = "pidlab." + string(f)
	}

	data := export.FromResult(result, reg.Environment(), cfg.Horizon)
	if err := export.WriteFile(path, f, data); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if path != "-" {
		fmt.Fprintf(os.Stderr, "exported %d trajectories to %s\n", len(data.Trajectories), path)
	}
	return nil
}

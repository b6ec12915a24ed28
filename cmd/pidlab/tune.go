package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidlab/internal/automation"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/logging"
	"github.com/san-kum/pidlab/internal/models"
	"github.com/san-kum/pidlab/internal/optim"
	"github.com/san-kum/pidlab/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	kpRange     string
	kiRange     string
	kdRange     string
	metricName  string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepHeight int
)

func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the gains of the first model",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	cmd.Flags().StringVar(&kpRange, "kp-range", "0:4:9", "kp grid as min:max:n")
	cmd.Flags().StringVar(&kiRange, "ki-range", "0:0:1", "ki grid as min:max:n")
	cmd.Flags().StringVar(&kdRange, "kd-range", "0:2:5", "kd grid as min:max:n")
	cmd.Flags().StringVar(&metricName, "metric", "iae", "metric to minimise")
	return cmd
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter of the first model or the environment",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	cmd.Flags().StringVar(&sweepParam, "param", control.ParamKp, "parameter to sweep")
	cmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 4, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 8, "number of values")
	cmd.Flags().StringVar(&metricName, "metric", "iae", "metric to plot")
	cmd.Flags().IntVar(&sweepHeight, "height", 10, "plot height in rows")
	return cmd
}

// parseRange reads a min:max:n grid.
func parseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("range %q: want min:max:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("range %q: n must be a positive integer", s)
	}
	return optim.Linspace(lo, hi, n), nil
}

// baseGains returns the tuned values of the first configured model.
func baseGains(cfg *config.Config) map[string]float64 {
	if len(cfg.Models) == 0 {
		return map[string]float64{control.ParamKp: config.DefaultKp}
	}
	m := cfg.Models[0]
	gains := map[string]float64{
		control.ParamKp: m.Kp,
		control.ParamKi: m.Ki,
		control.ParamKd: m.Kd,
	}
	if m.MaxAccel != 0 {
		gains[models.ParamMaxAccel] = m.MaxAccel
	}
	return gains
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Verbose: verbose, File: logFile})
	if err != nil {
		return err
	}
	defer log.Sync()

	names := []string{control.ParamKp, control.ParamKi, control.ParamKd}
	var ranges [][]float64
	for _, s := range []string{kpRange, kiRange, kdRange} {
		r, err := parseRange(s)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	log.Debug("grid search",
		zap.Int("candidates", len(ranges[0])*len(ranges[1])*len(ranges[2])),
		zap.String("metric", metricName))

	best, score, err := g.Search(cmd.Context(), cfg.Environment, cfg.Horizon, metricName)
	if err != nil {
		return err
	}

	fmt.Printf("best %s %.4f\n", metricName, score)
	fmt.Printf("  kp %.4g  ki %.4g  kd %.4g\n", best[control.ParamKp], best[control.ParamKi], best[control.ParamKd])
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Verbose: verbose, File: logFile})
	if err != nil {
		return err
	}
	defer log.Sync()

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Param:       sweepParam,
		Min:         sweepMin,
		Max:         sweepMax,
		NumSteps:    sweepSteps,
		Gains:       baseGains(cfg),
		Environment: cfg.Environment,
		Horizon:     cfg.Horizon,
	}, log)
	if err != nil {
		return err
	}

	curve := make([]float64, 0, len(results))
	for _, r := range results {
		v, ok := r.Metrics[metricName]
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}
		if v < 0 {
			v = math.NaN()
		}
		curve = append(curve, v)
	}
	if len(curve) > 1 {
		fmt.Println(asciigraph.Plot(curve,
			asciigraph.Height(sweepHeight),
			asciigraph.SeriesColors(viz.CurrentTheme.SeriesColor(0)),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", metricName, sweepParam)),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL\tPEAK\tOVERSHOOT%%\tRISE\tSETTLE\tIAE\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.3f\t%.3f\t%.2f\t%s\t%s\t%.2f\n",
			r.ParamValue,
			r.Final,
			r.Peak,
			r.Metrics["overshoot_pct"],
			formatTime(r.Metrics["rise_time"]),
			formatTime(r.Metrics["settling_time"]),
			r.Metrics["iae"],
		)
	}
	return w.Flush()
}

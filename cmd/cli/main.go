package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/internal/config"
	"eventcast/internal/container"
	"eventcast/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	inputPath  string
	outputPath string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "eventcast",
		Short: "Event-augmented indicator forecasting",
		Long: `Forecast indicators from sparse observations, adjusted for the projected
effect of dated events.

Input is a processed workbook (sheets data, events, impact_links), a unified
workbook or CSV with a record_type column.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&flags.inputPath, "input", "i", "", "Input workbook or CSV (overrides data.input_path)")
	rootCmd.PersistentFlags().StringVarP(&flags.outputPath, "output", "o", "", "Directory for workbook and report output (overrides data.output_path)")

	rootCmd.AddCommand(
		newForecastCmd(&flags),
		newScenariosCmd(&flags),
		newMatrixCmd(&flags),
		newReconstructCmd(&flags),
		newSpreadCmd(&flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the container and loads the input tables
func setup(ctx context.Context, flags *globalFlags) (*container.Container, *forecast.Tables, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.inputPath != "" {
		cfg.Data.InputPath = flags.inputPath
	}
	if flags.outputPath != "" {
		cfg.Data.OutputPath = flags.outputPath
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if c.Source == nil {
		return nil, nil, fmt.Errorf("no input: pass --input or set data.input_path")
	}
	tables, err := c.Source.LoadTables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", cfg.Data.InputPath, err)
	}
	return c, tables, nil
}

type requestFlags struct {
	indicators    []string
	years         []int
	confidence    float64
	scale         float64
	minConfidence string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.indicators, "indicator", nil, "Indicator code(s); default all observed")
	cmd.Flags().IntSliceVar(&f.years, "years", []int{2025, 2026, 2027}, "Forecast years")
	cmd.Flags().Float64Var(&f.confidence, "confidence", 0, "Interval confidence in (0,1); default engine.confidence")
	cmd.Flags().Float64Var(&f.scale, "event-scale", 1.0, "Multiplier on event effects")
	cmd.Flags().StringVar(&f.minConfidence, "min-confidence", "", "Drop impact links below low|medium|high")
}

func (f *requestFlags) request(cfg *config.Config) run.Request {
	req := run.Request{
		Years:         f.years,
		Confidence:    f.confidence,
		EventScale:    f.scale,
		MinConfidence: forecast.ParseConfidence(f.minConfidence),
	}
	if req.Confidence == 0 {
		req.Confidence = cfg.Engine.Confidence
	}
	for _, code := range f.indicators {
		req.Indicators = append(req.Indicators, core.IndicatorCode(strings.TrimSpace(code)))
	}
	return req
}

func newForecastCmd(flags *globalFlags) *cobra.Command {
	var rf requestFlags
	var scenarios, reconstruct, matrix bool
	var format string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Trend and event-augmented forecasts per indicator",
		Long: `Fit a linear trend per indicator, project it with prediction intervals
and add the accumulated effect of linked events.

Example: eventcast forecast -i data/processed/ethiopia_fi_enriched.xlsx --years 2025,2026,2027 --scenarios`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, tables, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			req := rf.request(c.Config)
			req.Scenarios, req.Reconstruct, req.Matrix = scenarios, reconstruct, matrix

			rep, err := c.Service.Forecast(cmd.Context(), tables, req)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), rep, format)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&scenarios, "scenarios", false, "Include pessimistic/base/optimistic scenarios")
	cmd.Flags().BoolVar(&reconstruct, "reconstruct", false, "Include the event-adjusted history")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "Include the event x indicator impact matrix")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown|html")
	return cmd
}

func newScenariosCmd(flags *globalFlags) *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Scenario table (long format) per indicator and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, tables, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			req := rf.request(c.Config)
			req.Scenarios = true
			rep, err := c.Service.Forecast(cmd.Context(), tables, req)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDICATOR\tYEAR\tSCENARIO\tFORECAST\tLOWER\tUPPER")
			for _, res := range rep.Results {
				for _, row := range res.Scenarios {
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", row.IndicatorCode, row.Year, row.Scenario, num(row.Point), num(row.Lower), num(row.Upper))
				}
			}
			return w.Flush()
		},
	}
	rf.register(cmd)
	return cmd
}

func newMatrixCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Event x indicator impact matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, tables, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			m, err := c.Service.Matrix(cmd.Context(), tables)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := []string{"EVENT"}
			for _, code := range m.Indicators() {
				header = append(header, string(code))
			}
			fmt.Fprintln(w, strings.Join(header, "\t"))
			for _, ev := range m.Events() {
				cells := []string{string(ev)}
				for _, v := range m.Row(ev) {
					cells = append(cells, num(v))
				}
				fmt.Fprintln(w, strings.Join(cells, "\t"))
			}
			return w.Flush()
		},
	}
}

func newReconstructCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruct [indicator]",
		Short: "Observed history with the cumulative event effect at each date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, tables, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			history, err := c.Service.Reconstruct(cmd.Context(), tables, core.IndicatorCode(args[0]))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tOBSERVED\tADDITION\tADJUSTED")
			for _, h := range history {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.Date.Format("2006-01-02"), num(h.Value), num(h.Addition), num(h.Adjusted))
			}
			return w.Flush()
		},
	}
}

func newSpreadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "spread [impact-link-id]",
		Short: "Monthly schedule of one impact link's effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, tables, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			id, err := core.ParseImpactLinkID(args[0])
			if err != nil {
				return err
			}
			steps, err := c.Service.Spread(cmd.Context(), tables, id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MONTH\tEFFECT")
			for _, s := range steps {
				fmt.Fprintf(w, "%s\t%.6f\n", s.Month.Format("2006-01"), s.Effect)
			}
			return w.Flush()
		},
	}
}

func writeReport(out io.Writer, rep *run.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "markdown", "md":
		_, err := out.Write(report.Markdown(rep))
		return err
	case "html":
		_, err := out.Write(report.HTML(rep))
		return err
	}
	return fmt.Errorf("unknown format %q (json|markdown|html)", format)
}

func num(v float64) string {
	if v != v {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

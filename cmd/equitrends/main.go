package main

import (
	"encoding/json"
	"fmt"
	"os"

	"equitrends/adapters/panelfile"
	"equitrends/app"
	"equitrends/domain/equivalence"
	"equitrends/domain/panel"
	"equitrends/internal"
	"equitrends/internal/config"
	"equitrends/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional .env for local runs; environment variables win.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "equitrends",
		Short: "Equivalence tests for pre-trends in difference-in-differences panels",
		Long: `equitrends tests whether placebo (pre-treatment) coefficients are
negligible, reporting the minimum equivalence threshold at which the
null of a non-negligible pre-trend can be rejected.`,
	}

	rootCmd.AddCommand(
		newTestCmd(equivalence.TestIU, "iu", "Intersection-union test over individual placebo coefficients"),
		newTestCmd(equivalence.TestMean, "mean", "Test on the average placebo coefficient"),
		newTestCmd(equivalence.TestBootstrap, "bootstrap", "Cluster residual bootstrap test on the maximum placebo coefficient"),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliFlags collects the per-run overrides; zero values defer to the
// environment-derived configuration.
type cliFlags struct {
	dataFile      string
	alpha         float64
	margin        float64
	idColumn      string
	timeColumn    string
	respColumn    string
	placeboPrefix string
	replications  int
	workers       int
	seed          int64
	asJSON        bool
}

func newTestCmd(tt equivalence.TestType, use, short string) *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:   use + " [data-file]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.dataFile = args[0]
			}
			return runTest(cmd, tt, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dataFile, "data", "", "Path to the panel data file (xlsx or csv)")
	cmd.Flags().Float64Var(&flags.alpha, "alpha", 0, "Significance level (default from EQUITRENDS_ALPHA)")
	cmd.Flags().Float64Var(&flags.margin, "margin", 0, "Equivalence margin to decide at; omit to only report the minimum threshold")
	cmd.Flags().StringVar(&flags.idColumn, "id-col", "", "Individual identifier column")
	cmd.Flags().StringVar(&flags.timeColumn, "time-col", "", "Time period column")
	cmd.Flags().StringVar(&flags.respColumn, "response-col", "", "Response column")
	cmd.Flags().StringVar(&flags.placeboPrefix, "placebo-prefix", "", "Header prefix marking placebo columns")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Emit the result as JSON")

	if tt == equivalence.TestBootstrap {
		cmd.Flags().IntVar(&flags.replications, "reps", 0, "Bootstrap replications")
		cmd.Flags().IntVar(&flags.workers, "workers", 0, "Parallel bootstrap workers")
		cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Random seed for resampling")
	}

	return cmd
}

func runTest(cmd *cobra.Command, tt equivalence.TestType, flags cliFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)

	if cfg.Data.File == "" {
		return fmt.Errorf("no data file: pass one as an argument, via --data, or set EQUITRENDS_DATA_FILE")
	}

	var reader ports.DatasetReader = panelfile.NewReader(cfg.Data.File, panelfile.Config{
		IDColumn:       cfg.Data.IDColumn,
		TimeColumn:     cfg.Data.TimeColumn,
		ResponseColumn: cfg.Data.ResponseColumn,
		PlaceboPrefix:  cfg.Data.PlaceboPrefix,
	})
	ds, err := reader.Read()
	if err != nil {
		return err
	}

	svc := app.NewEquivalenceService(internal.DefaultLogger)
	opt := app.Options{
		Alpha:        cfg.Test.Alpha,
		Margin:       cfg.Test.Margin,
		Replications: cfg.Bootstrap.Replications,
		Workers:      cfg.Bootstrap.Workers,
		Seed:         cfg.Bootstrap.Seed,
	}

	var result *equivalence.TestResult
	switch tt {
	case equivalence.TestIU:
		result, err = svc.RunIU(cmd.Context(), ds, opt)
	case equivalence.TestMean:
		result, err = svc.RunMean(cmd.Context(), ds, opt)
	case equivalence.TestBootstrap:
		result, err = svc.RunBootstrap(cmd.Context(), ds, opt)
	default:
		return fmt.Errorf("unknown test type: %s", tt)
	}
	if err != nil {
		return err
	}

	if flags.asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
	}
	printResult(cmd, ds, result)
	return nil
}

func applyFlags(cfg *config.Config, flags cliFlags) {
	if flags.dataFile != "" {
		cfg.Data.File = flags.dataFile
	}
	if flags.alpha > 0 {
		cfg.Test.Alpha = flags.alpha
	}
	if flags.margin > 0 {
		cfg.Test.Margin = flags.margin
	}
	if flags.idColumn != "" {
		cfg.Data.IDColumn = flags.idColumn
	}
	if flags.timeColumn != "" {
		cfg.Data.TimeColumn = flags.timeColumn
	}
	if flags.respColumn != "" {
		cfg.Data.ResponseColumn = flags.respColumn
	}
	if flags.placeboPrefix != "" {
		cfg.Data.PlaceboPrefix = flags.placeboPrefix
	}
	if flags.replications > 0 {
		cfg.Bootstrap.Replications = flags.replications
	}
	if flags.workers > 0 {
		cfg.Bootstrap.Workers = flags.workers
	}
	if flags.seed != 0 {
		cfg.Bootstrap.Seed = flags.seed
	}
}

func printResult(cmd *cobra.Command, ds *panel.Dataset, result *equivalence.TestResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Test:              %s\n", result.Type)
	fmt.Fprintf(out, "Run:               %s\n", result.RunID)
	fmt.Fprintf(out, "Panel:             %d individuals x %d periods, %d placebo coefficients\n",
		ds.Individuals(), ds.Periods(), ds.Placebos)
	fmt.Fprintf(out, "Alpha:             %g\n", result.Alpha)
	fmt.Fprintf(out, "Min threshold:     %.6g\n", result.MinThreshold)
	if result.Reject != nil {
		verdict := "not rejected (pre-trend may exceed the margin)"
		if *result.Reject {
			verdict = "rejected (pre-trend is negligible at the margin)"
		}
		fmt.Fprintf(out, "Margin:            %g\n", result.Margin)
		fmt.Fprintf(out, "Null hypothesis:   %s\n", verdict)
	}
	if len(result.Placebos) > 0 {
		fmt.Fprintln(out, "\nPlacebo coefficients:")
		for _, d := range result.Placebos {
			if d.MinThreshold > 0 {
				fmt.Fprintf(out, "  %-16s coef=%+.6g  se=%.6g  min_threshold=%.6g\n",
					d.Name, d.Coefficient, d.StdError, d.MinThreshold)
			} else {
				fmt.Fprintf(out, "  %-16s coef=%+.6g  se=%.6g\n", d.Name, d.Coefficient, d.StdError)
			}
		}
	}
	fmt.Fprintf(out, "\nCompleted in %dms\n", result.RuntimeMs)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mwhitfield/barrage/internal/config"
	"github.com/mwhitfield/barrage/internal/httpclient"
	"github.com/mwhitfield/barrage/internal/loadgen"
	"github.com/mwhitfield/barrage/internal/output"
	"github.com/mwhitfield/barrage/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load test scenario against a target",
	Long: `Run one of the named scenarios against a target API.

Numeric profile settings may be overridden per run:

  barrage run --base-url https://api.example.com --scenario baseline
  barrage run --base-url https://api.example.com --scenario stress \
    --workers 100 --rate 500 --duration 2m

Endpoint catalogs come from a YAML or JSON file (--endpoints); without one a
built-in REST mix is used. Flags can also be supplied via BARRAGE_* env vars
or the config file.`,
	RunE: runLoadTest,
}

func init() {
	runCmd.Flags().StringP("scenario", "s", "baseline", "scenario profile to run")
	runCmd.Flags().StringP("base-url", "u", "", "base URL of the target API (required)")
	runCmd.Flags().StringP("endpoints", "e", "", "endpoint catalog file (.yaml or .json)")

	runCmd.Flags().DurationP("duration", "d", 0, "override: total run duration")
	runCmd.Flags().IntP("workers", "w", 0, "override: worker count")
	runCmd.Flags().Float64P("rate", "r", 0, "override: target rate in req/s")
	runCmd.Flags().Duration("ramp-up", 0, "override: ramp-up window")
	runCmd.Flags().Bool("rate-per-worker", false, "pace each worker at the full target rate (legacy semantics)")

	runCmd.Flags().Duration("timeout", loadgen.DefaultRequestTimeout, "per-request timeout")
	runCmd.Flags().Duration("drain-timeout", loadgen.DefaultDrainTimeout, "bounded wait for in-flight requests at shutdown")
	runCmd.Flags().String("auth-token", "", "bearer token for endpoints that require auth (or BARRAGE_AUTH_TOKEN)")
	runCmd.Flags().Bool("insecure", false, "skip TLS certificate verification")

	runCmd.Flags().String("report", "", "write a Markdown report to this path")
	runCmd.Flags().String("json", "", "write the final snapshot as JSON to this path")
	runCmd.Flags().BoolP("quiet", "q", false, "suppress live progress output")
	runCmd.Flags().BoolP("verbose", "v", false, "enable structured debug logging")

	viper.BindPFlags(runCmd.Flags())
}

func runLoadTest(cmd *cobra.Command, args []string) error {
	baseURL := viper.GetString("base-url")
	if baseURL == "" {
		return fmt.Errorf("--base-url is required")
	}

	logger := zap.NewNop()
	if viper.GetBool("verbose") {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer logger.Sync()
	}

	profile, err := buildProfile()
	if err != nil {
		return err
	}

	endpoints := config.DefaultCatalog()
	if path := viper.GetString("endpoints"); path != "" {
		endpoints, err = config.LoadCatalog(path)
		if err != nil {
			return err
		}
	}

	clientOpts := []httpclient.Option{
		httpclient.WithUserAgent("barrage/" + version),
	}
	if viper.GetBool("insecure") {
		clientOpts = append(clientOpts, httpclient.WithInsecureTLS())
	}

	var creds loadgen.CredentialProvider = loadgen.Anonymous{}
	if token := viper.GetString("auth-token"); token != "" {
		creds = loadgen.StaticToken(token)
	}

	quiet := viper.GetBool("quiet")
	console := output.NewConsole(os.Stdout, profile.Duration, quiet)

	pool, err := loadgen.NewPool(loadgen.Config{
		Profile:        profile,
		Catalog:        loadgen.StaticCatalog(endpoints),
		BaseURL:        baseURL,
		Transport:      httpclient.New(clientOpts...),
		Credentials:    creds,
		RequestTimeout: viper.GetDuration("timeout"),
		DrainTimeout:   viper.GetDuration("drain-timeout"),
		OnProgress:     console.Progress,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	// SIGINT/SIGTERM raise the stop flag; the normal drain path applies.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			fmt.Fprintln(os.Stderr, "\ninterrupted, draining...")
			pool.Stop()
		}
	}()

	if !quiet {
		fmt.Printf("scenario %s: %d workers, %.0f req/s target, %s ramp-up, %s\n",
			profile.Name, profile.Workers, profile.TargetRate,
			profile.RampUp, profile.Duration)
	}

	snapshot, err := pool.Run(context.Background())
	if err != nil {
		return err
	}

	console.Summary(snapshot)

	if path := viper.GetString("report"); path != "" {
		if err := report.WriteFile(path, snapshot); err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("\nreport written to %s\n", path)
		}
	}

	if path := viper.GetString("json"); path != "" {
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if !quiet {
			fmt.Printf("snapshot written to %s\n", path)
		}
	}

	return nil
}

// buildProfile resolves the named scenario and applies any overrides that
// were supplied via flag, env, or config file.
func buildProfile() (loadgen.Profile, error) {
	var ov loadgen.Overrides

	if viper.IsSet("duration") {
		d := viper.GetDuration("duration")
		ov.Duration = &d
	}
	if viper.IsSet("workers") {
		w := viper.GetInt("workers")
		ov.Workers = &w
	}
	if viper.IsSet("rate") {
		r := viper.GetFloat64("rate")
		ov.TargetRate = &r
	}
	if viper.IsSet("ramp-up") {
		r := viper.GetDuration("ramp-up")
		ov.RampUp = &r
	}
	if viper.IsSet("rate-per-worker") {
		b := viper.GetBool("rate-per-worker")
		ov.RatePerWorker = &b
	}

	return loadgen.LookupProfile(viper.GetString("scenario"), ov)
}

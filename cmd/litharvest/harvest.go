// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litharvest/internal/extract"
	"github.com/pdiddy/litharvest/internal/fetch"
	"github.com/pdiddy/litharvest/internal/harvest"
	"github.com/pdiddy/litharvest/internal/llm"
	"github.com/pdiddy/litharvest/internal/sink"
	"github.com/pdiddy/litharvest/internal/source"
	"github.com/pdiddy/litharvest/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Fetch abstracts for a list of DOIs",
	Long: `Harvest reads a tab-separated list of identifiers and titles, fetches each
record from the DOI resolver or a metadata API (CrossRef, OpenAlex, Semantic
Scholar), and extracts the abstract with the configured strategies
(structural selectors, a JSON field, an inverted index, or a language model),
falling back in order. Results are appended to the output
in batches; a record that fails is written with an empty abstract.

Each of --concurrency workers waits at least --interval between requests,
so throughput is roughly concurrency/interval requests per second.`,
	Example: `  litharvest harvest -i dois.tsv -o abstracts.tsv
  litharvest harvest -i dois.tsv --source crossref --user-agent "me (mailto:me@example.org)"
  litharvest harvest -i dois.tsv --strategy structural,model --provider gemini`,
	RunE: runHarvest,
}

func init() {
	f := harvestCmd.Flags()
	f.StringP("input", "i", "", "input TSV: identifier<TAB>title per row")
	f.StringP("output", "o", "abstracts.tsv", "output file; .db or .sqlite writes a SQLite database")
	f.String("source", string(types.SourceDOI), "fetch preset: doi, crossref, openalex or semanticscholar")
	f.String("url-template", "", "URL template with an {id} placeholder (overrides --source)")
	f.StringSlice("strategy", nil, "extraction strategies in fallback order: structural, api, inverted, model")
	f.StringSlice("selector", nil, "structural selectors in priority order (replaces the defaults)")
	f.String("field-path", "", "JSON path of the abstract for the api strategy (default depends on --source)")
	f.Int("concurrency", harvest.DefaultConcurrency, "number of concurrent workers")
	f.Duration("interval", harvest.DefaultInterval, "minimum delay between requests on one worker (negative disables)")
	f.Int("batch-size", sink.DefaultBatchSize, "records per output flush")
	f.Duration("timeout", 0, "per-request HTTP timeout (default 30s)")
	f.Int("retry-passes", 0, "extra passes over failed records")
	f.Int("throttle-retries", 0, "backoff retries on HTTP 429")
	f.String("user-agent", "", "User-Agent header (CrossRef asks for a mailto)")
	f.String("provider", llm.ProviderAnthropic, "model provider for the model strategy: anthropic or gemini")
	f.String("model", "", "model identifier (default depends on provider)")
	f.Int("model-concurrency", 0, "maximum concurrent model calls (default 4)")
	f.Int("budget", 0, "characters of page text sent to the model (default 12000)")

	for _, name := range []string{
		"input", "output", "source", "url-template", "strategy", "selector", "field-path",
		"concurrency", "interval", "batch-size", "timeout", "retry-passes", "throttle-retries",
		"user-agent", "provider", "model", "model-concurrency", "budget",
	} {
		_ = viper.BindPFlag("harvest."+name, f.Lookup(name))
	}

	rootCmd.AddCommand(harvestCmd)
}

// harvestConfig assembles the harvest settings; flags override the config
// file, which overrides defaults.
func harvestConfig() types.HarvestConfig {
	var strategies []types.Strategy
	for _, s := range viper.GetStringSlice("harvest.strategy") {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				strategies = append(strategies, types.Strategy(strings.ToLower(part)))
			}
		}
	}

	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:         viper.GetDuration("harvest.timeout"),
			UserAgent:       viper.GetString("harvest.user-agent"),
			ThrottleRetries: viper.GetInt("harvest.throttle-retries"),
		},
		Source:      types.FetchSource(strings.ToLower(viper.GetString("harvest.source"))),
		URLTemplate: viper.GetString("harvest.url-template"),
		Strategies:  strategies,
		Selectors:   viper.GetStringSlice("harvest.selector"),
		FieldPath:   viper.GetString("harvest.field-path"),
		Concurrency: viper.GetInt("harvest.concurrency"),
		Interval:    viper.GetDuration("harvest.interval"),
		BatchSize:   viper.GetInt("harvest.batch-size"),
		RetryPasses: viper.GetInt("harvest.retry-passes"),
		AI: types.AIConfig{
			Provider:      viper.GetString("harvest.provider"),
			Model:         viper.GetString("harvest.model"),
			MaxConcurrent: viper.GetInt("harvest.model-concurrency"),
			Budget:        viper.GetInt("harvest.budget"),
		},
	}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	input := viper.GetString("harvest.input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	output := viper.GetString("harvest.output")
	cfg := harvestConfig()
	applySecrets(&cfg, loadedSecrets)

	log := newLogger()
	w := cmd.OutOrStdout()

	// Every fatal condition is checked here, before the first request.
	records, err := source.ReadRecords(input)
	if err != nil {
		return err
	}
	if odd := countNonDOI(records); odd > 0 {
		log.Warn("identifiers that do not look like DOIs will likely fail", "count", odd)
	}

	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = extract.DefaultStrategies(cfg.Source)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var model extract.Model
	if extract.NeedsModel(strategies) {
		key, err := llm.ResolveAPIKey(cfg.AI, loadedSecrets)
		if err != nil {
			return err
		}
		cfg.AI.APIKey = key
		gen, err := llm.New(ctx, cfg.AI)
		if err != nil {
			return err
		}
		model = gen
	}

	extractor, err := extract.Build(cfg, model)
	if err != nil {
		return err
	}
	client, err := fetch.New(cfg, nil)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	out, err := sink.Open(output, runID)
	if err != nil {
		return err
	}
	batcher := sink.NewBatcher(out, cfg.BatchSize)

	log = log.With("run", runID)
	log.Info("harvest started",
		"records", len(records), "output", output, "source", cfg.Source,
		"strategy", extractor.Name(), "concurrency", cfg.Concurrency, "interval", cfg.Interval)
	fmt.Fprintf(w, "Harvesting %d records into %s (%s)\n", len(records), output, extractor.Name())

	coord := harvest.New(client, extractor, batcher, harvest.Options{
		Concurrency: cfg.Concurrency,
		Interval:    cfg.Interval,
		RetryPasses: cfg.RetryPasses,
		Progress:    w,
		Logger:      log,
	})

	sum, runErr := coord.Run(ctx, records)
	closeErr := batcher.Close(context.Background())

	printSummary(w, sum)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			_, written := batcher.Stats()
			return fmt.Errorf("interrupted after %d records were written: %w", written, runErr)
		}
		return runErr
	}
	return closeErr
}

// applySecrets fills request credentials from .secrets/: a contact email
// for the polite pools of CrossRef and OpenAlex, and a Semantic Scholar key.
func applySecrets(cfg *types.HarvestConfig, secrets map[string]string) {
	if email := secrets["contact-email"]; email != "" && cfg.UserAgent == "" {
		cfg.UserAgent = fmt.Sprintf("litharvest/%s (mailto:%s)", version, email)
	}
	if key := secrets["semantic-scholar-api-key"]; key != "" && cfg.Source == types.SourceSemanticScholar {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers["x-api-key"] = key
	}
}

func countNonDOI(records []types.Record) int {
	n := 0
	for _, r := range records {
		if !fetch.IsDOI(fetch.NormalizeIdentifier(r.Identifier)) {
			n++
		}
	}
	return n
}

func printSummary(w io.Writer, sum harvest.Summary) {
	fmt.Fprintf(w, "\nHarvest complete in %s\n", sum.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Records:           %d\n", sum.Total)
	fmt.Fprintf(w, "  With abstract:     %d\n", sum.Fetched)
	fmt.Fprintf(w, "  Extraction failed: %d\n", sum.ExtractionFailed)
	fmt.Fprintf(w, "  Fetch failed:      %d\n", sum.FetchFailed)
	if sum.Retried > 0 {
		fmt.Fprintf(w, "  Retried:           %d over %d passes\n", sum.Retried, sum.Passes)
	}
	fmt.Fprintf(w, "  Batches written:   %d\n", sum.Batches)
}

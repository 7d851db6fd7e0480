// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litharvest/internal/dedupe"
	"github.com/pdiddy/litharvest/internal/source"
	"github.com/pdiddy/litharvest/internal/zotero"
	"github.com/pdiddy/litharvest/pkg/types"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find duplicate records by DOI or fuzzy title",
	Long: `Dedupe groups records that refer to the same work, either by exact DOI
(trimmed, case-insensitive) or by fuzzy title similarity, and keeps the record
with the lowest ID in each group.

Records come from a harvested TSV file (--input; the row number is the ID) or
from a Zotero library (--zotero; the itemID is the ID). Nothing is deleted
unless --apply is given with --zotero, and the database is backed up first.
Title grouping is greedy: each title joins the first group it matches, so
results near the threshold can depend on input order. Review the report
before applying.`,
	Example: `  litharvest dedupe --input abstracts.tsv --by title
  litharvest dedupe --zotero ~/Zotero/zotero.sqlite --by doi --plan plan.yaml
  litharvest dedupe --zotero ~/Zotero/zotero.sqlite --from-plan plan.yaml --apply`,
	RunE: runDedupe,
}

func init() {
	f := dedupeCmd.Flags()
	f.String("by", string(types.DedupeByDOI), "matching mode: doi or title")
	f.Float64("threshold", dedupe.DefaultThreshold, "title similarity a record must exceed to join a group")
	f.String("input", "", "harvested TSV file to scan")
	f.String("zotero", "", "Zotero database to scan (e.g. "+zotero.DefaultPath()+")")
	f.String("plan", "", "write the plan as YAML to this path")
	f.String("from-plan", "", "use a previously written plan instead of resolving again")
	f.Bool("apply", false, "delete superseded items from the Zotero database")

	for _, name := range []string{"by", "threshold", "input", "zotero", "plan"} {
		_ = viper.BindPFlag("dedupe."+name, f.Lookup(name))
	}

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	cfg := types.DedupeConfig{
		Mode:      types.DedupeMode(strings.ToLower(viper.GetString("dedupe.by"))),
		Threshold: viper.GetFloat64("dedupe.threshold"),
	}
	input := viper.GetString("dedupe.input")
	dbPath := viper.GetString("dedupe.zotero")
	planPath := viper.GetString("dedupe.plan")
	fromPlan, _ := cmd.Flags().GetString("from-plan")
	apply, _ := cmd.Flags().GetBool("apply")

	if (input == "") == (dbPath == "") {
		return fmt.Errorf("provide exactly one of --input or --zotero")
	}
	if fromPlan != "" && dbPath == "" {
		return fmt.Errorf("--from-plan needs --zotero")
	}
	if apply && dbPath == "" {
		return fmt.Errorf("--apply needs --zotero; harvested files are never rewritten")
	}

	log := newLogger()
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	var store *zotero.Store
	if dbPath != "" {
		var err error
		store, err = zotero.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var plan types.DedupePlan
	var err error
	switch {
	case fromPlan != "":
		plan, err = dedupe.ReadPlan(fromPlan)
	case store != nil:
		plan, err = resolveCandidates(cfg, func() ([]types.Candidate, error) {
			return store.Candidates(ctx, cfg.Mode)
		})
	default:
		plan, err = resolveCandidates(cfg, func() ([]types.Candidate, error) {
			return source.ReadHarvested(input)
		})
	}
	if err != nil {
		return err
	}
	log.Info("duplicates resolved", "mode", plan.Mode, "scanned", plan.Scanned, "groups", len(plan.Groups))
	dedupe.PrintReport(w, plan)

	if planPath != "" {
		if err := dedupe.WritePlan(planPath, plan); err != nil {
			return err
		}
		fmt.Fprintf(w, "Plan written to %s\n", planPath)
	}

	if !apply {
		if store != nil && len(plan.Groups) > 0 {
			fmt.Fprintln(w, "Dry run: re-run with --apply to delete the superseded items.")
		}
		return nil
	}
	if len(plan.Groups) == 0 {
		return nil
	}

	backup, err := store.Backup()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Backup created at %s\n", backup)

	n, err := store.Apply(ctx, plan)
	if err != nil {
		return err
	}
	log.Info("duplicates removed", "items", n, "groups", len(plan.Groups))
	fmt.Fprintf(w, "Deleted %d duplicate items. Restart Zotero for the changes to take effect.\n", n)
	return nil
}

func resolveCandidates(cfg types.DedupeConfig, load func() ([]types.Candidate, error)) (types.DedupePlan, error) {
	candidates, err := load()
	if err != nil {
		return types.DedupePlan{}, err
	}
	return dedupe.Resolve(cfg.Mode, cfg.Threshold, candidates)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedupe

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litharvest/pkg/types"
)

var (
	keepColor   = color.New(color.FgGreen, color.Bold)
	removeColor = color.New(color.FgRed)
	keyColor    = color.New(color.FgCyan)
)

// PrintReport writes a human-readable summary of plan to w.
func PrintReport(w io.Writer, plan types.DedupePlan) {
	if len(plan.Groups) == 0 {
		fmt.Fprintf(w, "No duplicates found in %d records.\n", plan.Scanned)
		return
	}

	for i, g := range plan.Groups {
		fmt.Fprintf(w, "Group %d: ", i+1)
		keyColor.Fprintf(w, "%s\n", g.Key)
		for _, m := range g.Members {
			label := describe(plan.Mode, m)
			if m.ID == g.Survivor.ID {
				keepColor.Fprintf(w, "  keep   %d  %s\n", m.ID, label)
			} else {
				removeColor.Fprintf(w, "  remove %d  %s\n", m.ID, label)
			}
		}
	}

	fmt.Fprintf(w, "\n%d duplicate groups, %d records to remove (of %d scanned)\n",
		len(plan.Groups), len(plan.SupersededIDs()), plan.Scanned)
}

func describe(mode types.DedupeMode, c types.Candidate) string {
	if mode == types.DedupeByDOI {
		if c.Title != "" {
			return c.DOI + "  " + c.Title
		}
		return c.DOI
	}
	return c.Title
}

// WritePlan saves plan as YAML at path.
func WritePlan(path string, plan types.DedupePlan) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing plan %s: %w", path, err)
	}
	return nil
}

// ReadPlan loads a plan previously saved with WritePlan.
func ReadPlan(path string) (types.DedupePlan, error) {
	var plan types.DedupePlan
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("reading plan %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	return plan, nil
}

//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Harvest builds the CLI and harvests abstracts for $INPUT into $OUTPUT
// (default abstracts.tsv).
func Harvest() error {
	mg.Deps(Build)
	input := os.Getenv("INPUT")
	if input == "" {
		return fmt.Errorf("set INPUT to the TSV of DOIs to harvest")
	}
	output := os.Getenv("OUTPUT")
	if output == "" {
		output = "abstracts.tsv"
	}
	return sh.RunV(binDir+"/"+binName, "harvest", "--input", input, "--output", output)
}

// Dedupe builds the CLI and reports title duplicates in $INPUT (default abstracts.tsv).
// Nothing is deleted.
func Dedupe() error {
	mg.Deps(Build)
	input := os.Getenv("INPUT")
	if input == "" {
		input = "abstracts.tsv"
	}
	return sh.RunV(binDir+"/"+binName, "dedupe", "--input", input, "--by", "title")
}

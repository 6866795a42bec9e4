// Package main provides scenariolint, a standalone CLI that validates a
// scenario file and reports every issue it finds without starting a
// runtime.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/correlator-io/correlator/internal/kernelerrors"
	"github.com/correlator-io/correlator/internal/scenario"
)

const (
	version = "1.0.0-dev"
	name    = "scenariolint"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Args[1] == "--version" {
		fmt.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	if os.Args[1] == "--help" {
		printUsage()
		os.Exit(0)
	}

	path := os.Args[1]

	data, err := readAsJSON(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to read %s: %v\n", name, path, err)
		os.Exit(1)
	}

	scenarioValue, err := scenario.Validate(data)
	if err != nil {
		reportIssues(path, err)
		os.Exit(1)
	}

	reportValid(scenarioValue)
}

func readAsJSON(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}

		return json.Marshal(doc)
	default:
		return raw, nil
	}
}

func reportValid(s *scenario.Scenario) {
	events := 0
	listeners := 0

	for _, d := range s.Domains {
		events += len(d.Events)
		listeners += len(d.Listeners)
	}

	fmt.Printf("scenario valid: %q (version %d) — %d domain(s), %d event(s), %d listener(s)\n",
		s.Name, s.Version, len(s.Domains), events, listeners)
}

func reportIssues(path string, err error) {
	var valErr *kernelerrors.ValidationError
	if errors.As(err, &valErr) {
		fmt.Printf("scenario invalid: %s\n", path)

		for _, issue := range valErr.Issues {
			fmt.Printf("  %s: %s\n", issue.PathString(), issue.Message)
		}

		return
	}

	fmt.Printf("scenario invalid: %s: %v\n", path, err)
}

func printUsage() {
	fmt.Printf(`%s v%s - scenario document validator

USAGE:
    %s <path>

Reads a scenario document (JSON or YAML) at <path>, validates it, and
prints either a summary or every issue found. Exits non-zero on any
validation failure.

OPTIONS:
    --help     Show this help message
    --version  Show version information
`, name, version, name)
}

// Package loader resolves a scenario by name to a file under
// business/, parses it, and hands it to the scenario package for
// validation.
package loader

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

// candidateNames are tried, in order, within each business/ directory
// walked. JSON is preferred; YAML is a domain-stack addition.
var candidateNames = func(name string) []string {
	return []string{name + ".json", name + ".yaml", name + ".yml"}
}

// Load resolves name to a file under business/ by walking from dir
// upward through ancestor directories until a match is found or the
// filesystem root is reached, then parses and validates it.
func Load(dir, name string) (*scenario.Scenario, error) {
	path, searched, err := resolve(dir, name)
	if err != nil {
		return nil, &kernelerrors.LoaderError{
			Sentinel:   kernelerrors.ErrLoaderNotFound,
			ScenarioID: name,
			SearchedIn: searched,
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &kernelerrors.LoaderError{
			Sentinel:   kernelerrors.ErrLoaderParseError,
			ScenarioID: name,
			Path:       path,
			Cause:      err,
		}
	}

	data, err := toJSON(path, raw)
	if err != nil {
		return nil, &kernelerrors.LoaderError{
			Sentinel:   kernelerrors.ErrLoaderParseError,
			ScenarioID: name,
			Path:       path,
			Cause:      err,
		}
	}

	scenarioValue, err := scenario.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %q failed validation: %w", name, err)
	}

	return scenarioValue, nil
}

// resolve walks from dir up through ancestors looking for
// business/<name>.{json,yaml,yml}, returning the first match and the
// list of directories searched (for a not-found error message).
func resolve(dir, name string) (path string, searched []string, err error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}

	for {
		businessDir := filepath.Join(current, "business")
		searched = append(searched, businessDir)

		for _, candidate := range candidateNames(name) {
			p := filepath.Join(businessDir, candidate)
			if fileExists(p) {
				return p, searched, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", searched, errors.New("reached filesystem root without finding scenario")
		}

		current = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// toJSON returns data unchanged when path is JSON, or translates YAML
// into an equivalent JSON document otherwise, so the rest of the
// pipeline (scenario.Validate) only ever sees JSON.
func toJSON(path string, data []byte) ([]byte, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}

		converted, err := json.Marshal(normalizeYAML(doc))
		if err != nil {
			return nil, fmt.Errorf("convert YAML to JSON: %w", err)
		}

		return converted, nil
	default:
		if !json.Valid(data) {
			return nil, errors.New("malformed JSON")
		}

		return data, nil
	}
}

// normalizeYAML recursively converts map[string]interface{} keys that
// yaml.v3 may decode as map[interface{}]interface{} in nested contexts,
// and coerces non-string map keys to strings, so json.Marshal never
// fails on an unsupported key type.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			out[k] = normalizeYAML(sub)
		}

		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(sub)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, sub := range val {
			out[i] = normalizeYAML(sub)
		}

		return out
	default:
		return val
	}
}

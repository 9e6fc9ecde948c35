// Package blockio carries the small input/output conventions shared by the
// in-repo blocks: glob expansion of declared inputs and JSON config loading.
// Glob patterns in the spec are resolved here, never by the engine.
package blockio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand resolves glob wildcards in the declared inputs. Literal paths pass
// through untouched; patterns expand to their matches (which may be none).
func Expand(inputs []string) []string {
	expanded := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if !strings.ContainsAny(input, "*?") {
			expanded = append(expanded, input)
			continue
		}
		matches, err := doublestar.FilepathGlob(input)
		if err != nil {
			continue
		}
		expanded = append(expanded, matches...)
	}
	return expanded
}

// FirstFileWithExt returns the first expanded input that is a regular file
// with the given extension.
func FirstFileWithExt(inputs []string, ext string) (string, bool) {
	for _, input := range Expand(inputs) {
		if filepath.Ext(input) != ext {
			continue
		}
		info, err := os.Stat(input)
		if err != nil || info.IsDir() {
			continue
		}
		return input, true
	}
	return "", false
}

// DecodeJSONFile reads and decodes a JSON document into v.
func DecodeJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteJSONOutputs writes v pretty-printed to every declared output with a
// .json extension, creating parent directories as needed.
func WriteJSONOutputs(outputs []string, v interface{}) error {
	for _, output := range outputs {
		if filepath.Ext(output) != ".json" {
			continue
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

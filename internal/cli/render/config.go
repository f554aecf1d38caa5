package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{
		out: out,
	}
}

// getRelativePath returns the relative path from current directory
func getRelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}

	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}

	return relPath
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	if !result.Exists {
		fmt.Fprintln(r.out, FormatWarning("No local config file found"))
		fmt.Fprintln(r.out, "Defaults come from safe.toml, flags and TREB_SAFE_* variables")
		return nil
	}

	fmt.Fprintln(r.out, "Current config:")
	width := 0
	for _, v := range result.Values {
		width = max(width, len(v.Key)+1)
	}
	for _, v := range result.Values {
		label := FormatStatus(string(v.Key)) + ":"
		fmt.Fprintf(r.out, "%-*s %s\n", width, label, orUnset(v.Value))
	}
	if result.IsEmpty() {
		fmt.Fprintln(r.out, FormatWarning("No values set; defaults from safe.toml apply"))
	}
	fmt.Fprintf(r.out, "\nconfig file: %s\n", getRelativePath(result.Path))

	return nil
}

// RenderSet renders the result of setting a configuration value
func (r *ConfigRenderer) RenderSet(result *usecase.SetConfigResult) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Set %s to: %s", result.Key, result.Value)))
	fmt.Fprintf(r.out, "config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderRemove renders the result of removing a configuration value
func (r *ConfigRenderer) RenderRemove(result *usecase.RemoveConfigResult) error {
	if result.RemovedValue == "" {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s was not set", result.Key)))
	} else {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Removed %s (was: %s)", result.Key, result.RemovedValue)))
	}
	fmt.Fprintf(r.out, "config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

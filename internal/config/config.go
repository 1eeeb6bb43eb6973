// Package config builds the single model.Config value for a devserve run.
//
// Values are layered in a fixed order: built-in defaults, then an optional
// config file in the working directory (or the one named by --config), then
// command-line flags. The file format is chosen by extension:
//
//	.yaml, .yml    gopkg.in/yaml.v3
//	.json, .jsonc  github.com/tidwall/jsonc, then encoding/json
//	.toml          github.com/BurntSushi/toml
//
// Keys use snake_case in every format. Unknown keys are rejected so a typo
// does not silently fall back to a default.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/devserve/internal/hosts"
	"github.com/shinji-kodama/devserve/internal/model"
	"github.com/shinji-kodama/devserve/internal/resolver"
)

// Built-in defaults.
const (
	DefaultPort     = 8888
	DefaultHost     = "0.0.0.0"
	DefaultDomain   = "dev.local"
	DefaultServeDir = "."
)

// SearchNames are the file names Find looks for in the working directory,
// in priority order.
var SearchNames = []string{
	"devserve.yaml",
	"devserve.yml",
	"devserve.jsonc",
	"devserve.json",
	"devserve.toml",
}

// Defaults returns the configuration used when no file or flag overrides a
// value. The browser defaults to Safari on macOS and to the system handler
// elsewhere.
func Defaults() *model.Config {
	return defaultsFor(runtime.GOOS)
}

func defaultsFor(goos string) *model.Config {
	browser := model.BrowserDefault
	if goos == "darwin" {
		browser = model.BrowserSafari
	}
	return &model.Config{
		Port:          DefaultPort,
		Host:          DefaultHost,
		Domain:        DefaultDomain,
		ServeDir:      DefaultServeDir,
		Browser:       browser,
		OpenBrowser:   true,
		HostsPolicy:   model.PolicyDual,
		HostsFile:     hosts.DefaultPath,
		FlushCommands: resolver.DefaultCommands(goos),
		Docker:        true,
	}
}

// Find returns the first of SearchNames that exists in dir, or "" when
// there is none.
func Find(dir string) string {
	for _, name := range SearchNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load returns the defaults overlaid with the file at path.
//
// Behavior:
//   - If path is empty, the defaults are returned; callers locate a file
//     with Find first.
//   - A non-empty path must exist.
//   - Parse errors and unknown keys are returned as errors.
//
// The result is not validated; call Validate after applying flag
// overrides.
func Load(path string) (*model.Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// decode overlays data onto cfg. Keys absent from the file keep the value
// already in cfg.
func decode(path string, data []byte, cfg *model.Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil

	case ".json", ".jsonc":
		// Comments and trailing commas are stripped before parsing.
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil

	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil

	default:
		return fmt.Errorf("unsupported config format %q (use .yaml, .yml, .json, .jsonc or .toml)", ext)
	}
}

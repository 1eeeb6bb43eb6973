package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devserve/internal/model"
)

// parseConfig parses args on a fresh command tree and loads the resulting
// configuration without running anything.
func parseConfig(t *testing.T, args ...string) (*model.Config, error) {
	t.Helper()
	flags := &configFlags{}
	root := newRootCommand(flags)
	require.NoError(t, root.ParseFlags(args))
	return loadConfig(root, flags)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(t)
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, "dev.local", cfg.Domain)
	assert.Equal(t, model.PolicyDual, cfg.HostsPolicy)
	assert.True(t, cfg.OpenBrowser)
	assert.True(t, cfg.Docker)
}

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := parseConfig(t,
		"-p", "3000",
		"--domain", "myapp.local",
		"--browser", "firefox",
		"--private",
		"--no-browser",
		"--policy", "single",
		"--no-docker",
		"--qr",
		"--advertise",
		"--dir", "public",
		"--host", "127.0.0.1",
	)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "myapp.local", cfg.Domain)
	assert.Equal(t, model.BrowserFirefox, cfg.Browser)
	assert.True(t, cfg.Private)
	assert.False(t, cfg.OpenBrowser)
	assert.Equal(t, model.PolicySingle, cfg.HostsPolicy)
	assert.False(t, cfg.Docker)
	assert.True(t, cfg.QRCode)
	assert.True(t, cfg.Advertise)
	assert.Equal(t, "public", cfg.ServeDir)
	assert.Equal(t, "127.0.0.1", cfg.Host)
}

// TestLoadConfig_FlagsOverrideFile verifies only explicitly set flags mask
// config file values.
func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 3000\ndomain: file.local\nprivate: true\n"), 0o644))

	cfg, err := parseConfig(t, "--config", path, "--domain", "flag.local")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "flag.local", cfg.Domain)
	assert.True(t, cfg.Private)
}

// TestLoadConfig_FindsWorkingDirFile verifies a devserve file in the
// working directory is picked up without --config.
func TestLoadConfig_FindsWorkingDirFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("devserve.toml", []byte("port = 3000\n"), 0o644))

	cfg, err := parseConfig(t)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad browser", []string{"--browser", "lynx"}},
		{"bad policy", []string{"--policy", "both"}},
		{"bad domain", []string{"--domain", "has space"}},
		{"port out of range", []string{"--port", "70000"}},
		{"missing config file", []string{"--config", "/nonexistent/devserve.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(t, tt.args...)
			require.Error(t, err)

			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.ExitInvalidConfig, cliErr.Code)
		})
	}
}

func TestRunServe_MissingServeDir(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"--dir", filepath.Join(t.TempDir(), "missing")})

	err := root.Execute()
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitInvalidConfig, cliErr.Code)
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"extra"})
	assert.Error(t, root.Execute())
}

type fakeInspector struct {
	pids []string
	err  error
}

func (f fakeInspector) ListeningPIDs(context.Context, int) ([]string, error) {
	return f.pids, f.err
}

func statusConfig() *model.Config {
	return &model.Config{
		Port:        8888,
		Host:        "0.0.0.0",
		Domain:      "dev.local",
		HostsPolicy: model.PolicyDual,
		HostsFile:   "/etc/hosts",
	}
}

func TestCollectStatus(t *testing.T) {
	probes := statusProbes{
		inspector: fakeInspector{pids: []string{"101", "202"}},
		available: func(int) bool { return false },
		hosts: func(string) (map[model.AddressFamily]bool, error) {
			return map[model.AddressFamily]bool{model.FamilyIPv4: true, model.FamilyIPv6: false}, nil
		},
		containers: func(context.Context, int) ([]model.ContainerInfo, error) {
			return []model.ContainerInfo{{ContainerName: "web", Image: "nginx"}}, nil
		},
	}

	report := collectStatus(context.Background(), statusConfig(), probes)

	assert.Equal(t, 8888, report.Port)
	assert.False(t, report.Available)
	assert.Equal(t, []string{"101", "202"}, report.Listeners)
	assert.Equal(t, map[string]bool{"ipv4": true, "ipv6": false}, report.Hosts)
	require.Len(t, report.Containers, 1)
	assert.Equal(t, "web", report.Containers[0].ContainerName)

	out := &bytes.Buffer{}
	printStatusText(out, report)
	assert.Contains(t, out.String(), "8888 (in use)")
	assert.Contains(t, out.String(), "101, 202")
	assert.Contains(t, out.String(), "ipv4 ✓  ipv6 ✗")
	assert.Contains(t, out.String(), "web (nginx)")
}

// TestCollectStatus_ProbeFailures verifies probe errors are reported, not
// returned.
func TestCollectStatus_ProbeFailures(t *testing.T) {
	cfg := statusConfig()
	cfg.Domain = ""
	probes := statusProbes{
		inspector: fakeInspector{err: errors.New("lsof not found")},
		available: func(int) bool { return true },
		hosts: func(string) (map[model.AddressFamily]bool, error) {
			t.Fatal("hosts probe must not run without a domain")
			return nil, nil
		},
		containers: func(context.Context, int) ([]model.ContainerInfo, error) {
			return nil, errors.New("docker daemon unavailable")
		},
	}

	report := collectStatus(context.Background(), cfg, probes)

	assert.True(t, report.Available)
	assert.Empty(t, report.Listeners)
	assert.Equal(t, "lsof not found", report.ListenError)
	assert.Nil(t, report.Hosts)
	assert.Equal(t, "docker daemon unavailable", report.DockerError)

	out := &bytes.Buffer{}
	printStatusText(out, report)
	assert.Contains(t, out.String(), "8888 (available)")
	assert.Contains(t, out.String(), "unknown (lsof not found)")
	assert.Contains(t, out.String(), "- (disabled)")
	assert.Contains(t, out.String(), "unavailable (docker daemon unavailable)")
}

func TestCollectStatus_DockerDisabled(t *testing.T) {
	probes := statusProbes{
		inspector: fakeInspector{},
		available: func(int) bool { return true },
		hosts: func(string) (map[model.AddressFamily]bool, error) {
			return nil, errors.New("permission denied")
		},
	}

	report := collectStatus(context.Background(), statusConfig(), probes)

	assert.Empty(t, report.Containers)
	assert.Empty(t, report.DockerError)
	assert.Equal(t, "permission denied", report.HostsError)
}

func TestPrintStatus_JSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	out := &bytes.Buffer{}
	require.NoError(t, printStatus(out, statusReport{
		Port:       8888,
		Available:  true,
		Listeners:  []string{},
		Domain:     "dev.local",
		HostsFile:  "/etc/hosts",
		Policy:     "dual",
		Hosts:      map[string]bool{"ipv4": true, "ipv6": true},
		Containers: []model.ContainerInfo{},
	}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, float64(8888), decoded["port"])
	assert.Equal(t, true, decoded["available"])
	assert.Equal(t, []any{}, decoded["listeners"])
	assert.Equal(t, map[string]any{"ipv4": true, "ipv6": true}, decoded["hosts"])
	assert.NotContains(t, decoded, "dockerError")
}

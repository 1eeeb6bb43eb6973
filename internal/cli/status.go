package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devserve/internal/docker"
	"github.com/shinji-kodama/devserve/internal/hosts"
	"github.com/shinji-kodama/devserve/internal/model"
	"github.com/shinji-kodama/devserve/internal/port"
)

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the port, hosts file and container state without changing anything",
		Long: `Report what devserve would find on startup, without killing processes,
writing the hosts file or starting a server.

Examples:
  devserve status
  devserve status --port 3000 --domain myapp.local
  devserve status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			report := collectStatus(cmd.Context(), cfg, productionProbes(cfg))
			return printStatus(cmd.OutOrStdout(), report)
		},
	}
}

// statusProbes are the read-only checks behind the status report.
type statusProbes struct {
	inspector  model.ProcessInspector
	available  func(port int) bool
	hosts      func(domain string) (map[model.AddressFamily]bool, error)
	containers func(ctx context.Context, port int) ([]model.ContainerInfo, error)
}

func productionProbes(cfg *model.Config) statusProbes {
	probes := statusProbes{
		inspector: port.NewLsofInspector(),
		available: port.NewScanner(cfg.Host).IsPortAvailable,
		hosts:     hosts.NewReconciler(cfg.HostsFile, cfg.HostsPolicy, nil, nil).Check,
	}
	if cfg.Docker {
		probes.containers = docker.Inspect
	}
	return probes
}

// statusReport is the JSON shape of "devserve status --json".
type statusReport struct {
	Port        int                   `json:"port"`
	Available   bool                  `json:"available"`
	Listeners   []string              `json:"listeners"`
	ListenError string                `json:"listenError,omitempty"`
	Domain      string                `json:"domain,omitempty"`
	HostsFile   string                `json:"hostsFile"`
	Policy      string                `json:"policy"`
	Hosts       map[string]bool       `json:"hosts,omitempty"`
	HostsError  string                `json:"hostsError,omitempty"`
	Containers  []model.ContainerInfo `json:"containers"`
	DockerError string                `json:"dockerError,omitempty"`
}

// collectStatus runs every probe. Probe failures are recorded in the
// report rather than returned.
func collectStatus(ctx context.Context, cfg *model.Config, p statusProbes) statusReport {
	report := statusReport{
		Port:       cfg.Port,
		Available:  p.available(cfg.Port),
		Listeners:  []string{},
		Domain:     cfg.Domain,
		HostsFile:  cfg.HostsFile,
		Policy:     cfg.HostsPolicy.String(),
		Containers: []model.ContainerInfo{},
	}

	pids, err := p.inspector.ListeningPIDs(ctx, cfg.Port)
	if err != nil {
		report.ListenError = err.Error()
	} else if len(pids) > 0 {
		report.Listeners = pids
	}
	VerboseLog("Port %d: %d listener(s)", cfg.Port, len(report.Listeners))

	if cfg.Domain != "" {
		present, err := p.hosts(cfg.Domain)
		if err != nil {
			report.HostsError = err.Error()
		} else {
			report.Hosts = make(map[string]bool, len(present))
			for fam, ok := range present {
				report.Hosts[fam.String()] = ok
			}
		}
	}

	if p.containers != nil {
		containers, err := p.containers(ctx, cfg.Port)
		if err != nil {
			report.DockerError = err.Error()
		} else if len(containers) > 0 {
			report.Containers = containers
		}
	}

	return report
}

func printStatus(w io.Writer, report statusReport) error {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	printStatusText(w, report)
	return nil
}

func printStatusText(w io.Writer, report statusReport) {
	state := "available"
	if !report.Available {
		state = "in use"
	}
	fmt.Fprintf(w, "%-12s %d (%s)\n", "PORT", report.Port, state)

	listeners := "-"
	if len(report.Listeners) > 0 {
		listeners = strings.Join(report.Listeners, ", ")
	}
	if report.ListenError != "" {
		listeners = "unknown (" + report.ListenError + ")"
	}
	fmt.Fprintf(w, "%-12s %s\n", "LISTENERS", listeners)

	switch {
	case report.Domain == "":
		fmt.Fprintf(w, "%-12s %s\n", "DOMAIN", "- (disabled)")
	case report.HostsError != "":
		fmt.Fprintf(w, "%-12s %s (%s unreadable: %s)\n", "DOMAIN", report.Domain, report.HostsFile, report.HostsError)
	default:
		policy := model.HostsPolicy(report.Policy)
		marks := make([]string, 0, 2)
		for _, fam := range policy.Families() {
			mark := "✗"
			if report.Hosts[fam.String()] {
				mark = "✓"
			}
			marks = append(marks, fmt.Sprintf("%s %s", fam, mark))
		}
		fmt.Fprintf(w, "%-12s %s in %s: %s\n", "DOMAIN", report.Domain, report.HostsFile, strings.Join(marks, "  "))
	}

	switch {
	case report.DockerError != "":
		fmt.Fprintf(w, "%-12s unavailable (%s)\n", "CONTAINERS", report.DockerError)
	case len(report.Containers) == 0:
		fmt.Fprintf(w, "%-12s %s\n", "CONTAINERS", "-")
	default:
		names := make([]string, 0, len(report.Containers))
		for _, c := range report.Containers {
			names = append(names, fmt.Sprintf("%s (%s)", c.ContainerName, c.Image))
		}
		fmt.Fprintf(w, "%-12s %s\n", "CONTAINERS", strings.Join(names, ", "))
	}
}

package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/shinji-kodama/devserve/internal/browser"
	"github.com/shinji-kodama/devserve/internal/docker"
	"github.com/shinji-kodama/devserve/internal/hosts"
	"github.com/shinji-kodama/devserve/internal/mdns"
	"github.com/shinji-kodama/devserve/internal/model"
	"github.com/shinji-kodama/devserve/internal/port"
	"github.com/shinji-kodama/devserve/internal/resolver"
)

// DefaultBrowserDelay is how long after the bind the browser is opened.
const DefaultBrowserDelay = 500 * time.Millisecond

// PortReclaimer frees the serving port before the bind.
type PortReclaimer interface {
	Reclaim(ctx context.Context, port int) port.Report
	Kill(ctx context.Context, port int) []int
}

// HostsEnsurer makes a domain resolve to loopback.
type HostsEnsurer interface {
	Ensure(ctx context.Context, domain string) model.ReconciliationResult
}

// CacheInvalidator flushes the resolver cache and returns how many flush
// commands succeeded.
type CacheInvalidator interface {
	Flush(ctx context.Context) int
}

// Advertiser announces the server on the local network.
type Advertiser interface {
	Start() error
	Stop()
}

// Deps holds the collaborators of one run.
type Deps struct {
	Reaper      PortReclaimer
	Hosts       HostsEnsurer
	Invalidator CacheInvalidator
	Browser     model.BrowserOpener
	Logger      model.Logger

	// NewAdvertiser builds the mDNS advertiser once the port is known.
	// Nil disables advertisement regardless of the config.
	NewAdvertiser func(port int, domain string) Advertiser

	// Stdout receives the user-facing status lines and the banner.
	Stdout io.Writer

	// Terminal reports whether Stdout is an interactive terminal. The QR
	// code is printed only on a terminal.
	Terminal bool

	// LocalIP returns the LAN address shown in the banner.
	LocalIP func() string

	// BrowserDelay is the wait between the bind and opening the browser.
	BrowserDelay time.Duration

	// OnServing, if set, is called with the bound address once the server
	// accepts connections.
	OnServing func(addr string)
}

// NewDeps wires the production implementations for cfg.
func NewDeps(cfg *model.Config, logger model.Logger) Deps {
	reaper := port.NewReaper(port.NewLsofInspector(), port.NewSignalKiller(), logger)
	if cfg.Docker {
		reaper.SetContainerStopper(docker.NewStopper())
	}

	deps := Deps{
		Reaper:       reaper,
		Hosts:        hosts.NewReconciler(cfg.HostsFile, cfg.HostsPolicy, hosts.NewWriter(cfg.HostsFile), logger),
		Invalidator:  resolver.NewInvalidator(cfg.FlushCommands, resolver.ExecRunner{}, logger),
		Browser:      browser.NewLauncher(cfg.Browser, logger),
		Logger:       logger,
		Stdout:       os.Stdout,
		Terminal:     isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		LocalIP:      LocalIP,
		BrowserDelay: DefaultBrowserDelay,
	}
	if cfg.Advertise {
		deps.NewAdvertiser = func(port int, domain string) Advertiser {
			return mdns.NewAdvertiser(mdns.Config{Port: port, Domain: domain})
		}
	}
	return deps
}

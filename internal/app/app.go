package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/shinji-kodama/devserve/internal/model"
	"github.com/shinji-kodama/devserve/internal/server"
)

// State names a step of the startup sequence.
type State string

const (
	StateStart           State = "START"
	StatePortReclaimed   State = "PORT_RECLAIMED"
	StateHostsReconciled State = "HOSTS_RECONCILED"
	StateCacheFlushed    State = "CACHE_FLUSHED"
	StateURLSelected     State = "URL_SELECTED"
	StateServing         State = "SERVING"
	StateStopped         State = "STOPPED"
	StateFailed          State = "FAILED"
)

// runner carries the values shared by the steps of one run.
type runner struct {
	cfg  *model.Config
	deps Deps
}

// Run executes the startup sequence and serves until ctx is cancelled.
//
// A nil return means the server ran and was stopped by cancellation. A bind
// failure returns a *model.CLIError: ExitPortInUse when the port was still
// occupied, ExitGeneralError otherwise.
func Run(ctx context.Context, cfg *model.Config, deps Deps) error {
	r := &runner{cfg: cfg, deps: deps}
	if r.deps.LocalIP == nil {
		r.deps.LocalIP = LocalIP
	}
	r.transition(StateStart)

	r.reclaimPort(ctx)
	r.transition(StatePortReclaimed)
	if ctx.Err() != nil {
		return r.stopped()
	}

	result := r.reconcileHosts(ctx)
	r.transition(StateHostsReconciled)
	if ctx.Err() != nil {
		return r.stopped()
	}

	if result.Changed() {
		r.flushCache(ctx)
		r.transition(StateCacheFlushed)
	}

	host := model.LocalhostName
	if result.OK && !result.Skipped && result.Domain != "" {
		host = result.Domain
	} else if !result.Skipped {
		r.status("⚠", "Could not configure %s, using localhost instead", result.Domain)
	}
	r.transition(StateURLSelected, "host", host)

	srv := server.New(cfg.Host, cfg.Port, cfg.ServeDir, deps.Logger)
	if err := srv.Listen(); err != nil {
		r.transition(StateFailed)
		return r.bindError(ctx, err)
	}

	boundPort := cfg.Port
	if tcp, ok := srv.Addr().(*net.TCPAddr); ok {
		boundPort = tcp.Port
	}
	url := model.ServingURL(result, boundPort)
	r.transition(StateServing, "url", url)

	if cfg.OpenBrowser && deps.Browser != nil {
		go r.openBrowser(ctx, url)
	}

	if cfg.Advertise && deps.NewAdvertiser != nil {
		adv := deps.NewAdvertiser(boundPort, result.Domain)
		if err := adv.Start(); err != nil {
			deps.Logger.Warn("mDNS advertisement failed", "err", err)
		} else {
			defer adv.Stop()
			deps.Logger.Debug("mDNS advertisement started", "port", boundPort)
		}
	}

	r.printBanner(bannerInfo{
		URL:       url,
		Domain:    host,
		Port:      boundPort,
		Dir:       cfg.ServeDir,
		Network:   r.networkURL(boundPort),
		Private:   cfg.OpenBrowser && cfg.Private,
		PrivateOK: supportsPrivate(deps.Browser),
		Browser:   cfg.Browser,
		ShowQR:    cfg.QRCode && deps.Terminal,
		Advertise: cfg.Advertise && deps.NewAdvertiser != nil,
	})

	if deps.OnServing != nil {
		deps.OnServing(srv.Addr().String())
	}

	if err := srv.Serve(ctx); err != nil {
		r.transition(StateFailed)
		return model.WrapCLIError(model.ExitGeneralError, "server failed", err)
	}

	return r.stopped()
}

// stopped ends the run after an interrupt. An interrupt is a clean exit at
// any point of the sequence.
func (r *runner) stopped() error {
	r.transition(StateStopped)
	fmt.Fprintln(r.deps.Stdout, "\nServer stopped")
	return nil
}

// reclaimPort runs the reaper and reports its outcome.
func (r *runner) reclaimPort(ctx context.Context) {
	report := r.deps.Reaper.Reclaim(ctx, r.cfg.Port)

	for _, name := range report.StoppedContainers {
		r.status("✓", "Stopped container %s publishing port %d", name, report.Port)
	}
	switch {
	case len(report.Killed) == 0 && report.Free:
		r.status("✓", "Port %d is free", report.Port)
	case report.Free:
		r.status("✓", "Freed port %d (terminated %d process(es))", report.Port, len(report.Killed))
	default:
		r.status("⚠", "Port %d may still be in use", report.Port)
	}
}

// reconcileHosts ensures the configured domain resolves to loopback.
func (r *runner) reconcileHosts(ctx context.Context) model.ReconciliationResult {
	result := r.deps.Hosts.Ensure(ctx, r.cfg.Domain)

	switch {
	case result.Skipped:
		r.deps.Logger.Debug("no custom domain configured")
	case result.OK && result.Changed():
		r.status("✓", "Added %s to %s", result.Domain, r.cfg.HostsFile)
	case result.OK:
		r.status("✓", "%s is already in %s", result.Domain, r.cfg.HostsFile)
	}
	return result
}

func (r *runner) flushCache(ctx context.Context) {
	if r.deps.Invalidator.Flush(ctx) > 0 {
		r.status("✓", "DNS cache flushed")
		return
	}
	r.status("⚠", "DNS cache could not be flushed; the domain may take a moment to resolve")
}

// bindError maps a listener failure to a CLIError. When the port is still
// in use the listeners are killed once more so a second run succeeds.
func (r *runner) bindError(ctx context.Context, err error) error {
	if !errors.Is(err, server.ErrAddrInUse) {
		return model.WrapCLIError(model.ExitGeneralError, "failed to start server", err)
	}

	killed := r.deps.Reaper.Kill(ctx, r.cfg.Port)
	r.deps.Logger.Debug("killed listeners after bind failure", "port", r.cfg.Port, "count", len(killed))
	r.status("✗", "Port %d is still in use", r.cfg.Port)
	return model.WrapCLIError(
		model.ExitPortInUse,
		fmt.Sprintf("port %d is still in use; terminated %d process(es), run devserve again", r.cfg.Port, len(killed)),
		err,
	)
}

// openBrowser waits BrowserDelay and opens url. It runs in its own
// goroutine and is never joined; failures are only logged. The launch is
// detached from ctx so stopping the server does not kill the browser.
func (r *runner) openBrowser(ctx context.Context, url string) {
	select {
	case <-time.After(r.deps.BrowserDelay):
	case <-ctx.Done():
		return
	}
	if err := r.deps.Browser.Open(context.WithoutCancel(ctx), url, r.cfg.Private); err != nil {
		r.deps.Logger.Warn("failed to open browser", "url", url, "err", err)
	}
}

// networkURL is the address other devices on the LAN can use, or "" when
// the server binds a loopback address only.
func (r *runner) networkURL(port int) string {
	host := r.cfg.Host
	if host == model.LocalhostName {
		return ""
	}
	ip := net.ParseIP(host)
	switch {
	case ip != nil && ip.IsLoopback():
		return ""
	case ip == nil || ip.IsUnspecified():
		host = r.deps.LocalIP()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// supportsPrivate reports whether opener can open a private window. An
// opener that cannot tell is assumed to.
func supportsPrivate(opener model.BrowserOpener) bool {
	if p, ok := opener.(interface{ SupportsPrivate() bool }); ok {
		return p.SupportsPrivate()
	}
	return true
}

func (r *runner) transition(s State, args ...any) {
	r.deps.Logger.Debug("state "+string(s), args...)
}

func (r *runner) status(mark, format string, args ...any) {
	fmt.Fprintf(r.deps.Stdout, mark+" "+format+"\n", args...)
}

// LocalIP returns the address of the interface used for outbound traffic.
// Dialing UDP sends no packets; it only selects a route. 127.0.0.1 is
// returned when there is no route.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer func() { _ = conn.Close() }()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

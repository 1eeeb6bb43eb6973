// Package mdns announces the development server on the local network.
//
// When enabled, devserve registers an _http._tcp DNS-SD service so phones
// and other machines on the LAN can find it in a Bonjour browser without
// typing an IP address. The TXT record carries the path and, when a custom
// domain is configured, that domain for reference.
package mdns

import (
	"fmt"
	"os"
	"sync"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type for plain HTTP servers.
const ServiceType = "_http._tcp"

// Config holds configuration for mDNS advertisement.
type Config struct {
	// Port is the server port to advertise.
	Port int

	// Name is the service instance name.
	// Defaults to "devserve on <hostname>" if empty.
	Name string

	// Domain is the custom domain, added to the TXT record when set.
	Domain string
}

// Advertiser manages one DNS-SD registration.
type Advertiser struct {
	config Config
	server *zeroconf.Server
	mu     sync.Mutex
}

// NewAdvertiser creates a new mDNS advertiser with the given configuration.
func NewAdvertiser(cfg Config) *Advertiser {
	return &Advertiser{config: cfg}
}

// Start registers the service. Calling Start while already running is a
// no-op.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	server, err := zeroconf.Register(
		a.instanceName(),
		ServiceType,
		"local.",
		a.config.Port,
		txtRecords(a.config),
		nil, // all interfaces
	)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}

	a.server = server
	return nil
}

// Stop unregisters the service. It is safe to call Stop multiple times or
// on an advertiser that was never started.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// IsRunning returns true if the advertiser is currently registered.
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

func (a *Advertiser) instanceName() string {
	if a.config.Name != "" {
		return a.config.Name
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "devserve"
	}
	return "devserve on " + hostname
}

// txtRecords builds the DNS-SD TXT strings. "path" is the standard key for
// _http._tcp services.
func txtRecords(cfg Config) []string {
	txt := []string{"path=/"}
	if cfg.Domain != "" {
		txt = append(txt, "domain="+cfg.Domain)
	}
	return txt
}

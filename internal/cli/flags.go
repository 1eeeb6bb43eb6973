package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devserve/internal/config"
	"github.com/shinji-kodama/devserve/internal/model"
)

// configFlags holds the flags that override config file values. They are
// persistent so the status subcommand inspects the same port and domain the
// server would use.
type configFlags struct {
	configPath string
	port       int
	host       string
	domain     string
	serveDir   string
	browser    string
	private    bool
	noBrowser  bool
	policy     string
	advertise  bool
	qr         bool
	noDocker   bool
}

func (f *configFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Config file (default: devserve.{yaml,yml,jsonc,json,toml} in the working directory)")
	pf.IntVarP(&f.port, "port", "p", config.DefaultPort, "Port to serve on")
	pf.StringVar(&f.host, "host", config.DefaultHost, "Address to bind")
	pf.StringVar(&f.domain, "domain", config.DefaultDomain, `Custom local domain added to the hosts file ("" to disable)`)
	pf.StringVar(&f.serveDir, "dir", config.DefaultServeDir, "Directory to serve")
	pf.StringVar(&f.browser, "browser", "", "Browser to open: default, safari, chrome, firefox (default: safari on macOS, otherwise default)")
	pf.BoolVar(&f.private, "private", false, "Open the browser in a private window")
	pf.BoolVar(&f.noBrowser, "no-browser", false, "Do not open a browser")
	pf.StringVar(&f.policy, "policy", string(model.PolicyDual), "Hosts file policy: dual (IPv4 and IPv6) or single (IPv4 only)")
	pf.BoolVar(&f.advertise, "advertise", false, "Advertise the server on the LAN via mDNS")
	pf.BoolVar(&f.qr, "qr", false, "Print a QR code of the network URL")
	pf.BoolVar(&f.noDocker, "no-docker", false, "Do not stop Docker containers publishing the port")
}

// overrides returns the flags the user actually set. Flags left at their
// defaults do not mask config file values.
func (f *configFlags) overrides(cmd *cobra.Command) config.Overrides {
	changed := cmd.Flags().Changed
	var o config.Overrides
	if changed("port") {
		o.Port = &f.port
	}
	if changed("host") {
		o.Host = &f.host
	}
	if changed("domain") {
		o.Domain = &f.domain
	}
	if changed("dir") {
		o.ServeDir = &f.serveDir
	}
	if changed("browser") {
		o.Browser = &f.browser
	}
	if changed("private") {
		o.Private = &f.private
	}
	if changed("no-browser") {
		o.NoBrowser = &f.noBrowser
	}
	if changed("policy") {
		o.HostsPolicy = &f.policy
	}
	if changed("advertise") {
		o.Advertise = &f.advertise
	}
	if changed("qr") {
		o.QRCode = &f.qr
	}
	if changed("no-docker") {
		o.NoDocker = &f.noDocker
	}
	return o
}

// loadConfig builds the run configuration: defaults, then the config file,
// then flags. Any failure is an ExitInvalidConfig error.
func loadConfig(cmd *cobra.Command, f *configFlags) (*model.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.Find(".")
	}
	if path != "" {
		VerboseLog("Loading config from %s", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig, "invalid configuration", err)
	}
	if err := config.Apply(cfg, f.overrides(cmd)); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig, "invalid configuration", err)
	}

	VerboseLog("Config: port=%d host=%s domain=%q dir=%s browser=%s policy=%s",
		cfg.Port, cfg.Host, cfg.Domain, cfg.ServeDir, cfg.Browser, cfg.HostsPolicy)
	return cfg, nil
}

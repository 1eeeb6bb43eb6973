package model

import "fmt"

// Config is the single configuration value for a devserve run. It is
// constructed once at startup (defaults, then config file, then flags) and
// passed by pointer to every component; no component reads global state.
//
// Field tags cover the three supported config file formats. Keys use
// snake_case in every format.
type Config struct {
	// Port is the TCP port the server binds and the reaper reclaims.
	Port int `yaml:"port" json:"port" toml:"port"`

	// Host is the bind address. "0.0.0.0" makes the server reachable from
	// other devices on the LAN.
	Host string `yaml:"host" json:"host" toml:"host"`

	// Domain is the custom local hostname registered in the hosts file.
	// Empty disables hosts reconciliation entirely.
	Domain string `yaml:"domain" json:"domain" toml:"domain"`

	// ServeDir is the directory served over HTTP.
	ServeDir string `yaml:"serve_dir" json:"serve_dir" toml:"serve_dir"`

	// Browser selects which browser to open after the server binds.
	Browser Browser `yaml:"browser" json:"browser" toml:"browser"`

	// Private requests a private/incognito window.
	Private bool `yaml:"private" json:"private" toml:"private"`

	// OpenBrowser controls whether a browser is launched at all.
	OpenBrowser bool `yaml:"open_browser" json:"open_browser" toml:"open_browser"`

	// HostsPolicy selects single- or dual-family hosts reconciliation.
	HostsPolicy HostsPolicy `yaml:"hosts_policy" json:"hosts_policy" toml:"hosts_policy"`

	// HostsFile is the path of the resolver mapping file.
	HostsFile string `yaml:"hosts_file" json:"hosts_file" toml:"hosts_file"`

	// FlushCommands are the privileged commands run to invalidate the OS
	// resolver cache after the hosts file changed. Each command is an argv.
	FlushCommands [][]string `yaml:"flush_commands" json:"flush_commands" toml:"flush_commands"`

	// Docker enables stopping containers that publish Port before the
	// reaper kills listeners.
	Docker bool `yaml:"docker" json:"docker" toml:"docker"`

	// Advertise announces the server on the LAN via mDNS/DNS-SD.
	Advertise bool `yaml:"advertise" json:"advertise" toml:"advertise"`

	// QRCode prints a QR code of the network URL in the startup banner.
	QRCode bool `yaml:"qr_code" json:"qr_code" toml:"qr_code"`
}

// Validate checks whether the Config has valid field values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range (0-65535)", c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if err := ValidateDomain(c.Domain); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Browser.IsValid() {
		return fmt.Errorf("config: invalid browser %q (valid: default, safari, chrome, firefox)", c.Browser)
	}
	if !c.HostsPolicy.IsValid() {
		return fmt.Errorf("config: invalid hosts policy %q (valid: dual, single)", c.HostsPolicy)
	}
	if c.HostsFile == "" {
		return fmt.Errorf("config: hosts file path must not be empty")
	}
	for i, argv := range c.FlushCommands {
		if len(argv) == 0 {
			return fmt.Errorf("config: flush command %d is empty", i)
		}
	}
	return nil
}

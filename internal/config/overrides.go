package config

import (
	"github.com/shinji-kodama/devserve/internal/model"
)

// Overrides holds values supplied on the command line. A nil field means
// the flag was not given and the file or default value stands.
type Overrides struct {
	Port        *int
	Host        *string
	Domain      *string
	ServeDir    *string
	Browser     *string
	Private     *bool
	NoBrowser   *bool
	HostsPolicy *string
	Advertise   *bool
	QRCode      *bool
	NoDocker    *bool
}

// Apply overlays o onto cfg and validates the result. Browser and policy
// names are matched case-insensitively.
func Apply(cfg *model.Config, o Overrides) error {
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.Host != nil {
		cfg.Host = *o.Host
	}
	if o.Domain != nil {
		cfg.Domain = *o.Domain
	}
	if o.ServeDir != nil {
		cfg.ServeDir = *o.ServeDir
	}
	if o.Browser != nil {
		b, err := model.ParseBrowser(*o.Browser)
		if err != nil {
			return err
		}
		cfg.Browser = b
	}
	if o.Private != nil {
		cfg.Private = *o.Private
	}
	if o.NoBrowser != nil {
		cfg.OpenBrowser = !*o.NoBrowser
	}
	if o.HostsPolicy != nil {
		p, err := model.ParseHostsPolicy(*o.HostsPolicy)
		if err != nil {
			return err
		}
		cfg.HostsPolicy = p
	}
	if o.Advertise != nil {
		cfg.Advertise = *o.Advertise
	}
	if o.QRCode != nil {
		cfg.QRCode = *o.QRCode
	}
	if o.NoDocker != nil {
		cfg.Docker = !*o.NoDocker
	}
	return cfg.Validate()
}

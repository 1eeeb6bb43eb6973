package model

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

// AddressFamily identifies which loopback address a hosts entry maps to.
type AddressFamily string

const (
	// FamilyIPv4 maps a domain to 127.0.0.1.
	FamilyIPv4 AddressFamily = "ipv4"

	// FamilyIPv6 maps a domain to ::1.
	FamilyIPv6 AddressFamily = "ipv6"
)

// Loopback literals written to the hosts file for each family.
const (
	LoopbackIPv4 = "127.0.0.1"
	LoopbackIPv6 = "::1"
)

// String returns the string representation of AddressFamily.
func (f AddressFamily) String() string {
	return string(f)
}

// Loopback returns the loopback address literal for the family.
// An unknown family yields the empty string.
func (f AddressFamily) Loopback() string {
	switch f {
	case FamilyIPv4:
		return LoopbackIPv4
	case FamilyIPv6:
		return LoopbackIPv6
	default:
		return ""
	}
}

// LoopbackAddr is the parsed form of Loopback. Comparing parsed addresses
// lets "0:0:0:0:0:0:0:1" count as an IPv6 loopback entry.
func (f AddressFamily) LoopbackAddr() netip.Addr {
	switch f {
	case FamilyIPv4:
		return netip.AddrFrom4([4]byte{127, 0, 0, 1})
	case FamilyIPv6:
		return netip.IPv6Loopback()
	default:
		return netip.Addr{}
	}
}

// HostsPolicy selects how the hosts reconciler decides whether a domain is
// already configured.
//
//   - PolicyDual checks IPv4 and IPv6 loopback entries independently and
//     appends one line per missing family.
//   - PolicySingle treats the domain as configured when any entry names it,
//     and appends only an IPv4 line otherwise.
type HostsPolicy string

const (
	// PolicyDual is the canonical policy.
	PolicyDual HostsPolicy = "dual"

	// PolicySingle is the IPv4-only variant.
	PolicySingle HostsPolicy = "single"
)

// String returns the string representation of HostsPolicy.
func (p HostsPolicy) String() string {
	return string(p)
}

// IsValid checks whether the policy is one of the predefined values.
func (p HostsPolicy) IsValid() bool {
	switch p {
	case PolicyDual, PolicySingle:
		return true
	default:
		return false
	}
}

// Families returns the address families the policy manages, in the order
// their lines are appended.
func (p HostsPolicy) Families() []AddressFamily {
	if p == PolicySingle {
		return []AddressFamily{FamilyIPv4}
	}
	return []AddressFamily{FamilyIPv4, FamilyIPv6}
}

// ParseHostsPolicy converts a string to a HostsPolicy.
// Returns an error if the string does not match any valid policy.
func ParseHostsPolicy(s string) (HostsPolicy, error) {
	policy := HostsPolicy(strings.ToLower(s))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid hosts policy: %q (valid: dual, single)", s)
	}
	return policy, nil
}

// HostsEntry is one line that should be present in the hosts file.
type HostsEntry struct {
	Domain string        `json:"domain"`
	Family AddressFamily `json:"family"`
}

// Address returns the loopback literal this entry maps the domain to.
func (e HostsEntry) Address() string {
	return e.Family.Loopback()
}

// Line renders the entry in hosts file syntax. The address is padded to a
// fixed column so appended entries line up with each other.
func (e HostsEntry) Line() string {
	return fmt.Sprintf("%-16s%s", e.Address(), e.Domain)
}

// ReconciliationResult is the outcome of one HostsReconciler run. It is
// derived and consumed immediately; nothing about it is persisted.
type ReconciliationResult struct {
	// Domain is the domain that was reconciled.
	Domain string `json:"domain"`

	// Present records, per managed family, whether an entry already existed
	// before this run.
	Present map[AddressFamily]bool `json:"present"`

	// Added lists the entries appended by this run.
	Added []HostsEntry `json:"added,omitempty"`

	// OK is true when the domain is resolvable to loopback after the run:
	// either nothing was missing or the privileged append succeeded.
	OK bool `json:"ok"`

	// Skipped is true when no domain was configured at all.
	Skipped bool `json:"skipped,omitempty"`
}

// Changed reports whether this run appended at least one entry.
func (r ReconciliationResult) Changed() bool {
	return len(r.Added) > 0
}

// HasFamily reports whether the family was already present before the run.
func (r ReconciliationResult) HasFamily(f AddressFamily) bool {
	return r.Present[f]
}

// LocalhostName is the host used in the serving URL when the custom domain
// could not be configured.
const LocalhostName = "localhost"

// ServingURL builds the URL handed to the banner, the browser and the
// advertiser. The custom domain is used only when reconciliation succeeded.
func ServingURL(result ReconciliationResult, port int) string {
	host := LocalhostName
	if result.OK && !result.Skipped && result.Domain != "" {
		host = result.Domain
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// ContainerInfo describes a running Docker container that publishes the
// serving port. This data is fetched from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the container name without Docker's leading "/".
	ContainerName string `json:"containerName"`

	// Image is the image the container runs.
	Image string `json:"image"`

	// ServiceName is the Docker Compose service name, if applicable.
	ServiceName string `json:"serviceName,omitempty"`

	// Status is the Docker container state (e.g. "running").
	Status string `json:"status"`
}

// Browser names a browser the launcher knows how to open.
type Browser string

const (
	// BrowserDefault opens the URL with the OS default handler.
	BrowserDefault Browser = "default"

	// BrowserSafari opens Safari (macOS only).
	BrowserSafari Browser = "safari"

	// BrowserChrome opens Google Chrome.
	BrowserChrome Browser = "chrome"

	// BrowserFirefox opens Firefox.
	BrowserFirefox Browser = "firefox"
)

// String returns the string representation of Browser.
func (b Browser) String() string {
	return string(b)
}

// IsValid checks whether the Browser value is one of the predefined values.
func (b Browser) IsValid() bool {
	switch b {
	case BrowserDefault, BrowserSafari, BrowserChrome, BrowserFirefox:
		return true
	default:
		return false
	}
}

// ParseBrowser converts a string to a Browser.
// Returns an error if the string does not match any valid browser.
func ParseBrowser(s string) (Browser, error) {
	b := Browser(strings.ToLower(s))
	if !b.IsValid() {
		return "", fmt.Errorf("invalid browser: %q (valid: default, safari, chrome, firefox)", s)
	}
	return b, nil
}

// domainRegex accepts RFC 1123 host names: dot-separated labels of
// alphanumerics and inner hyphens. Whitespace and '#' are excluded, which
// keeps an appended hosts line from being split or commented out.
var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidateDomain checks that the domain can be written to the hosts file.
// The empty string is valid and means "no custom domain".
func ValidateDomain(domain string) error {
	if domain == "" {
		return nil
	}
	if len(domain) > 253 {
		return fmt.Errorf("invalid domain %q: longer than 253 characters", domain)
	}
	if !domainRegex.MatchString(domain) {
		return fmt.Errorf("invalid domain %q: must be a host name of letters, digits, hyphens and dots", domain)
	}
	if strings.EqualFold(domain, LocalhostName) {
		return fmt.Errorf("invalid domain %q: localhost is always served", domain)
	}
	return nil
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts to programmatically determine the outcome of a
// command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully, including a
	// server stopped by an interrupt.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred, such as a
	// bind failure that is not "address in use".
	ExitGeneralError ExitCode = 1

	// ExitInvalidConfig indicates the configuration file or flags could not
	// be loaded or failed validation.
	ExitInvalidConfig ExitCode = 2

	// ExitPortInUse indicates the listener could not bind because the port
	// was still occupied after reclamation.
	ExitPortInUse ExitCode = 4
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

package hosts

import (
	"context"
	"os"

	"github.com/shinji-kodama/devserve/internal/model"
)

// DefaultPath is the system hosts file on UNIX-like hosts.
const DefaultPath = "/etc/hosts"

// Reconciler ensures a domain maps to loopback in the hosts file.
type Reconciler struct {
	path   string
	policy model.HostsPolicy
	writer model.PrivilegedWriter
	logger model.Logger
}

// NewReconciler creates a Reconciler for the hosts file at path.
// An invalid policy falls back to model.PolicyDual.
func NewReconciler(path string, policy model.HostsPolicy, writer model.PrivilegedWriter, logger model.Logger) *Reconciler {
	if !policy.IsValid() {
		policy = model.PolicyDual
	}
	return &Reconciler{path: path, policy: policy, writer: writer, logger: logger}
}

// Check reports which families already map domain to loopback, without
// writing anything. The error is the read error, if any; on error every
// family is reported missing.
func (r *Reconciler) Check(domain string) (map[model.AddressFamily]bool, error) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return presence(nil, domain, r.policy), err
	}
	return presence(parse(content), domain, r.policy), nil
}

// Ensure appends whatever loopback entries domain is missing.
//
// All missing lines are appended in one privileged write. An unreadable
// hosts file counts as "nothing configured" so the write is still attempted
// and fails visibly instead of being silently skipped. Running Ensure again
// without an external change appends nothing.
func (r *Reconciler) Ensure(ctx context.Context, domain string) model.ReconciliationResult {
	result := model.ReconciliationResult{
		Domain:  domain,
		Present: make(map[model.AddressFamily]bool, 2),
	}
	if domain == "" {
		result.Skipped = true
		return result
	}

	content, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Warn("could not read hosts file", "path", r.path, "err", err)
		content = nil
	}

	present := presence(parse(content), domain, r.policy)
	var missing []model.HostsEntry
	for _, fam := range r.policy.Families() {
		result.Present[fam] = present[fam]
		if !present[fam] {
			r.logger.Debug("hosts entry missing", "domain", domain, "family", fam)
			missing = append(missing, model.HostsEntry{Domain: domain, Family: fam})
		}
	}

	if len(missing) == 0 {
		r.logger.Debug("domain already configured in hosts file", "domain", domain, "policy", r.policy)
		result.OK = true
		return result
	}

	lines := make([]string, 0, len(missing)+1)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		// Terminate the last existing line so ours does not run into it.
		lines = append(lines, "")
	}
	for _, e := range missing {
		lines = append(lines, e.Line())
	}

	if ctx.Err() != nil {
		r.logger.Debug("interrupted before writing hosts file", "domain", domain)
		return result
	}

	r.logger.Info("adding entries to hosts file (requires sudo)", "path", r.path, "count", len(missing))
	if err := r.writer.Append(ctx, r.path, lines); err != nil {
		r.logger.Error("failed to add domain to hosts file", "domain", domain, "err", err)
		return result
	}

	result.Added = missing
	result.OK = true
	for _, e := range missing {
		r.logger.Debug("added hosts entry", "domain", domain, "family", e.Family)
	}
	return result
}

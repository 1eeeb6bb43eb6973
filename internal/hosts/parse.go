package hosts

import (
	"bufio"
	"bytes"
	"net/netip"
	"strings"

	"github.com/shinji-kodama/devserve/internal/model"
)

// entry is one non-comment hosts line: an address followed by host names.
type entry struct {
	// addr is invalid when the first field is not an IP literal.
	addr  netip.Addr
	names []string
}

// parse splits hosts file content into entries. Text after '#' is a
// comment; lines with fewer than two fields carry no mapping and are
// dropped.
func parse(content []byte) []entry {
	var entries []entry
	sc := bufio.NewScanner(bytes.NewReader(content))
	// Allow unusually long lines (some ad-block host lists are generated).
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		addr, _ := netip.ParseAddr(fields[0])
		entries = append(entries, entry{addr: addr.WithZone(""), names: fields[1:]})
	}
	return entries
}

// lists reports whether the entry names domain. Host names compare
// case-insensitively.
func (e entry) lists(domain string) bool {
	for _, n := range e.names {
		if strings.EqualFold(n, domain) {
			return true
		}
	}
	return false
}

// presence computes, for each family the policy manages, whether domain is
// already mapped.
//
// Dual policy: a family is present when an entry's address equals that
// family's loopback and the entry lists the domain. Single policy: IPv4
// counts as present when any entry lists the domain, whatever its address.
func presence(entries []entry, domain string, policy model.HostsPolicy) map[model.AddressFamily]bool {
	present := make(map[model.AddressFamily]bool, 2)
	for _, fam := range policy.Families() {
		present[fam] = false
	}

	for _, e := range entries {
		if !e.lists(domain) {
			continue
		}
		if policy == model.PolicySingle {
			present[model.FamilyIPv4] = true
			continue
		}
		for _, fam := range policy.Families() {
			if e.addr.IsValid() && e.addr.Unmap() == fam.LoopbackAddr() {
				present[fam] = true
			}
		}
	}
	return present
}

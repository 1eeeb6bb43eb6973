package hosts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shinji-kodama/devserve/internal/model"
)

func TestParse(t *testing.T) {
	content := []byte(`# comment line
127.0.0.1	localhost
::1 localhost ip6-localhost   # trailing comment
255.255.255.255 broadcasthost

not-an-ip somehost
lonely
`)
	entries := parse(content)

	assert.Len(t, entries, 4)
	assert.Equal(t, "127.0.0.1", entries[0].addr.String())
	assert.Equal(t, []string{"localhost"}, entries[0].names)
	assert.Equal(t, []string{"localhost", "ip6-localhost"}, entries[1].names)
	assert.False(t, entries[3].addr.IsValid(), "non-IP first field parses to an invalid address")
	assert.Equal(t, []string{"somehost"}, entries[3].names)
}

// TestPresence_Dual covers the matching rules for the dual-family policy.
func TestPresence_Dual(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ipv4    bool
		ipv6    bool
	}{
		{"empty", "", false, false},
		{"ipv4 only", "127.0.0.1 dev.local\n", true, false},
		{"both", "127.0.0.1 dev.local\n::1 dev.local\n", true, true},
		{"same line aliases", "127.0.0.1 other dev.local\n", true, false},
		{"commented out", "#127.0.0.1 dev.local\n# ::1 dev.local\n", false, false},
		{"substring is not a match", "127.0.0.1 mydev.local\n", false, false},
		{"wrong address", "10.0.0.1 dev.local\n", false, false},
		{"long-form ipv6", "0:0:0:0:0:0:0:1 dev.local\n", false, true},
		{"case-insensitive names", "::1 DEV.local\n", false, true},
		{"zoned ipv6", "::1%lo0 dev.local\n", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			present := presence(parse([]byte(tt.content)), "dev.local", model.PolicyDual)
			assert.Equal(t, tt.ipv4, present[model.FamilyIPv4], "ipv4")
			assert.Equal(t, tt.ipv6, present[model.FamilyIPv6], "ipv6")
		})
	}
}

func TestPresence_Single(t *testing.T) {
	present := presence(parse([]byte("10.0.0.1 dev.local\n")), "dev.local", model.PolicySingle)
	assert.Equal(t, map[model.AddressFamily]bool{model.FamilyIPv4: true}, present)

	present = presence(parse([]byte("# 127.0.0.1 dev.local\n")), "dev.local", model.PolicySingle)
	assert.False(t, present[model.FamilyIPv4])

	// Whole host-name tokens only: a longer name containing the domain does not count.
	present = presence(parse([]byte("127.0.0.1 mydev.local\n")), "dev.local", model.PolicySingle)
	assert.False(t, present[model.FamilyIPv4])
}

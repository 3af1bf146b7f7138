package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFilter_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		opts    []FilterOption
		wantErr string
	}{
		{name: "public ipv4", host: "8.8.8.8"},
		{name: "public ipv6", host: "2606:4700:4700::1111"},
		{name: "bracketed ipv6", host: "[2606:4700:4700::1111]"},
		{name: "loopback", host: "127.0.0.1", wantErr: "loopback"},
		{name: "loopback range", host: "127.0.0.2", wantErr: "loopback"},
		{name: "loopback ipv6", host: "::1", wantErr: "loopback"},
		{name: "private 10/8", host: "10.0.0.1", wantErr: "private"},
		{name: "private 172.16/12", host: "172.31.255.255", wantErr: "private"},
		{name: "private 192.168/16", host: "192.168.1.1", wantErr: "private"},
		{name: "link-local metadata", host: "169.254.169.254", wantErr: "link-local"},
		{name: "multicast", host: "224.0.0.1", wantErr: "multicast"},
		{name: "unspecified", host: "0.0.0.0", wantErr: "unspecified"},
		{name: "empty", host: "", wantErr: "empty host"},
		{name: "private allowed", host: "192.168.1.1", opts: []FilterOption{WithAllowPrivate(true)}},
		{name: "loopback allowed", host: "127.0.0.1", opts: []FilterOption{WithAllowPrivate(true)}},
		{name: "link-local stays blocked", host: "169.254.169.254", opts: []FilterOption{WithAllowPrivate(true)}, wantErr: "link-local"},
		{name: "allowlisted cidr", host: "10.1.2.3", opts: []FilterOption{WithAllowlist("10.1.0.0/16")}},
		{name: "blocklisted ip", host: "8.8.8.8", opts: []FilterOption{WithBlocklist("8.8.8.8")}, wantErr: "blocked"},
		{name: "blocklist beats allowlist", host: "10.1.2.3", opts: []FilterOption{WithAllowlist("10.1.0.0/16"), WithBlocklist("10.1.2.0/24")}, wantErr: "blocked"},
		{name: "blocklisted wildcard", host: "api.internal.example", opts: []FilterOption{WithBlocklist("*.internal.example")}, wantErr: "blocked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, err := NewAddressFilter(tt.opts...).Resolve(context.Background(), tt.host)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, ip)
		})
	}
}

func TestMatchesHost(t *testing.T) {
	assert.True(t, matchesHost("Example.com", "example.com"))
	assert.True(t, matchesHost("a.b.example.com", "*.example.com"))
	assert.False(t, matchesHost("example.com", "*.example.com"))
	assert.False(t, matchesHost("badexample.com", "*.example.com"))
}

package hostfuncs

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// AddressFilter decides whether the host may connect to an address on a
// guest's behalf. By default it blocks every address a guest could use to
// reach the host's own network: loopback, private, link-local, multicast and
// unspecified.
type AddressFilter struct {
	allowPrivate bool
	allowlist    []string
	blocklist    []string
	resolver     *net.Resolver
}

// FilterOption configures an AddressFilter.
type FilterOption func(*AddressFilter)

// WithAllowPrivate permits private and loopback destinations.
func WithAllowPrivate(allow bool) FilterOption {
	return func(f *AddressFilter) {
		f.allowPrivate = allow
	}
}

// WithAllowlist sets hosts, "*.suffix" wildcards or CIDRs that bypass the
// address class checks.
func WithAllowlist(patterns ...string) FilterOption {
	return func(f *AddressFilter) {
		f.allowlist = patterns
	}
}

// WithBlocklist sets hosts, "*.suffix" wildcards or CIDRs that are always
// rejected. The blocklist wins over the allowlist.
func WithBlocklist(patterns ...string) FilterOption {
	return func(f *AddressFilter) {
		f.blocklist = patterns
	}
}

// WithResolver sets the resolver used for hostnames.
func WithResolver(r *net.Resolver) FilterOption {
	return func(f *AddressFilter) {
		if r != nil {
			f.resolver = r
		}
	}
}

// NewAddressFilter creates a filter.
func NewAddressFilter(opts ...FilterOption) *AddressFilter {
	f := &AddressFilter{resolver: net.DefaultResolver}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve checks host and returns the IP to connect to. Hostnames are
// resolved once; callers must dial the returned IP so a second lookup cannot
// be rebound to a different address.
func (f *AddressFilter) Resolve(ctx context.Context, host string) (net.IP, error) {
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if host == "" {
		return nil, fmt.Errorf("empty host")
	}

	for _, p := range f.blocklist {
		if matchesHost(host, p) {
			return nil, fmt.Errorf("address %s is blocked", host)
		}
	}
	allowlisted := false
	for _, p := range f.allowlist {
		if matchesHost(host, p) {
			allowlisted = true
			break
		}
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := f.resolver.LookupIP(ctx, "ip", host)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", host, err)
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("resolve %s: no addresses", host)
		}
		ip = ips[0]
	}

	for _, p := range f.blocklist {
		if matchesIP(ip, p) {
			return nil, fmt.Errorf("address %s is blocked", ip)
		}
	}
	if !allowlisted {
		for _, p := range f.allowlist {
			if matchesIP(ip, p) {
				allowlisted = true
				break
			}
		}
	}
	if !allowlisted {
		if reason := f.classify(ip); reason != "" {
			return nil, fmt.Errorf("address %s rejected: %s", ip, reason)
		}
	}
	return ip, nil
}

// classify returns why ip is not a public unicast address, or "".
func (f *AddressFilter) classify(ip net.IP) string {
	switch {
	case ip.IsUnspecified():
		return "unspecified address"
	case ip.IsMulticast() || ip.IsInterfaceLocalMulticast() || ip.IsLinkLocalMulticast():
		return "multicast address"
	case ip.IsLinkLocalUnicast():
		return "link-local address"
	case f.allowPrivate:
		return ""
	case ip.IsLoopback():
		return "loopback address"
	case ip.IsPrivate():
		return "private address"
	}
	return ""
}

func matchesHost(host, pattern string) bool {
	if strings.EqualFold(host, pattern) {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(strings.ToLower(host), strings.ToLower(suffix))
	}
	return false
}

func matchesIP(ip net.IP, pattern string) bool {
	if _, cidr, err := net.ParseCIDR(pattern); err == nil {
		return cidr.Contains(ip)
	}
	if p := net.ParseIP(pattern); p != nil {
		return p.Equal(ip)
	}
	return false
}

// Package privacy reduces client identifiers before they reach logs.
package privacy

import (
	"net/netip"
)

const (
	v4Bits = 24
	v6Bits = 48
)

// AnonymizeIP masks addr to its /24 (IPv4) or /48 (IPv6) network and returns
// the network address. addr may carry a port. IPv4-mapped IPv6 addresses are
// treated as IPv4. Empty input yields "unknown" and garbage yields "invalid".
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}

	ip, err := netip.ParseAddr(addr)
	if err != nil {
		ap, perr := netip.ParseAddrPort(addr)
		if perr != nil {
			return "invalid"
		}
		ip = ap.Addr()
	}
	ip = ip.Unmap().WithZone("")

	bits := v6Bits
	if ip.Is4() {
		bits = v4Bits
	}
	prefix, err := ip.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

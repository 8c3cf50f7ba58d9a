package main

import (
	"net/netip"
	"strings"
)

// ExtractAddr pulls a valid IPv4 address out of a raw "addr" or "addr:port"
// token. Only the part before the first colon is validated; the rest is a
// probable port and is not checked further. Returns the bare address and true
// on success, or "" and false if the address part is not a well-formed
// dotted quad.
func ExtractAddr(raw string) (string, bool) {
	addr := raw
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		addr = raw[:i]
	}
	if !isValidIPv4(addr) {
		return "", false
	}
	return addr, true
}

// isValidIPv4 reports whether s is exactly four dot-separated decimal groups
// in [0,255]. netip.ParseAddr already rejects leading zeros, empty groups and
// trailing garbage; Is4 rules out IPv6 forms.
func isValidIPv4(s string) bool {
	ip, err := netip.ParseAddr(s)
	return err == nil && ip.Is4()
}

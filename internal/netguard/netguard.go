// Package netguard validates outbound scan targets against SSRF. The same
// predicate gates every scanner surface: http/https only, no credentials in
// the URL, and no destinations inside loopback, private, link-local, or
// cloud-metadata address space.
package netguard

import (
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// metadataHosts are well-known cloud metadata service hostnames.
var metadataHosts = map[string]bool{
	"metadata.google.internal":   true,
	"metadata.goog":              true,
	"instance-data":              true,
	"instance-data.ec2.internal": true,
	"metadata.azure.com":         true,
}

// ValidateTarget parses raw and returns the parsed URL if it is a safe
// external scan target. It rejects non-HTTP(S) schemes, userinfo, empty
// hosts, metadata hostnames, and literal IPs inside forbidden ranges.
// Hostnames that resolve to forbidden ranges are caught at dial time by
// GuardedDialer.
func ValidateTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("URL must not contain credentials")
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("URL has no host")
	}

	// url.Parse accepts any digit run as a port; out-of-range values would
	// overflow to an unintended port at dial time.
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q", p)
		}
	}

	if metadataHosts[strings.ToLower(strings.TrimSuffix(host, "."))] {
		return nil, fmt.Errorf("host %q is a metadata service", host)
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return nil, fmt.Errorf("host %q is loopback", host)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if reason := forbiddenAddr(addr); reason != "" {
			return nil, fmt.Errorf("address %s is %s", addr, reason)
		}
	}

	return u, nil
}

// CheckAddr rejects resolved addresses inside forbidden ranges. Used by the
// dial guard so DNS answers get the same treatment as literal IPs.
func CheckAddr(addr netip.Addr) error {
	if reason := forbiddenAddr(addr); reason != "" {
		return fmt.Errorf("address %s is %s", addr, reason)
	}
	return nil
}

func forbiddenAddr(addr netip.Addr) string {
	addr = addr.Unmap()

	switch {
	case addr.IsLoopback():
		return "loopback"
	case addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast():
		return "link-local"
	case addr.IsPrivate():
		return "private"
	case addr.IsUnspecified():
		return "unspecified"
	case addr.IsMulticast():
		return "multicast"
	}

	// Carrier-grade NAT (100.64.0.0/10) and IPv6 unique-local fc00::/7,
	// neither covered by IsPrivate.
	if addr.Is4() {
		if cgnat := netip.MustParsePrefix("100.64.0.0/10"); cgnat.Contains(addr) {
			return "carrier-grade NAT"
		}
	} else {
		if ula := netip.MustParsePrefix("fc00::/7"); ula.Contains(addr) {
			return "unique-local"
		}
	}

	return ""
}

// Package netguard rejects webhook destinations that point at internal
// network infrastructure.
package netguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Errors returned by ValidateURL. They are wrapped with detail, so compare
// with errors.Is.
var (
	ErrInvalidURL     = errors.New("netguard: invalid url")
	ErrInsecureScheme = errors.New("netguard: url must use https")
	ErrBlockedHost    = errors.New("netguard: host resolves to a blocked network")
	ErrUnresolvable   = errors.New("netguard: host cannot be resolved")
)

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// Options tune ValidateURL.
type Options struct {
	// AllowHTTP permits the plain http scheme. Address checks still apply.
	AllowHTTP bool
}

// ValidateURL checks that raw is an absolute https URL whose host is not
// localhost and whose addresses are all publicly routable. IP literals are
// checked directly; names are resolved through r.
func ValidateURL(ctx context.Context, raw string, r Resolver, opts Options) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Hostname() == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if u.User != nil {
		return fmt.Errorf("%w: credentials are not allowed in the url", ErrInvalidURL)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")

	if addr, parseErr := netip.ParseAddr(host); parseErr == nil {
		if IsBlocked(addr) {
			return fmt.Errorf("%w: %s", ErrBlockedHost, addr)
		}
	} else if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return ErrInsecureScheme
		}
	default:
		return ErrInsecureScheme
	}

	if _, parseErr := netip.ParseAddr(host); parseErr == nil {
		return nil
	}

	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnresolvable, host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: %s", ErrUnresolvable, host)
	}
	for _, a := range addrs {
		addr, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnresolvable, host)
		}
		if IsBlocked(addr) {
			return fmt.Errorf("%w: %s -> %s", ErrBlockedHost, host, addr.Unmap())
		}
	}
	return nil
}

// IsBlocked reports whether addr is loopback, private, link-local,
// unspecified, multicast or carrier-grade NAT space.
func IsBlocked(addr netip.Addr) bool {
	addr = addr.Unmap()
	return !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() ||
		cgnat.Contains(addr)
}

// DialControl is a net.Dialer Control hook that refuses connections to
// blocked addresses. It catches hosts that were public at registration and
// later resolve to internal addresses.
func DialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, address)
	}
	if IsBlocked(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, addr.Unmap())
	}
	return nil
}

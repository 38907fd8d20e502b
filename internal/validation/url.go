// Package validation checks user-supplied feed URLs and file paths before the
// importer and the exchange commands touch the network or the filesystem.
package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

var (
	ErrInvalidURL  = errors.New("invalid feed URL")
	ErrBlockedHost = errors.New("feed host not permitted")
)

const DefaultMaxURLLength = 2048

// FeedURLValidator decides which feed locations the importer may fetch.
type FeedURLValidator struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
	MaxLength       int
}

// NewFeedURLValidator blocks loopback and private addresses.
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{MaxLength: DefaultMaxURLLength}
}

// NewPermissiveFeedURLValidator accepts local addresses, for self-hosted feeds
// and tests.
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{AllowLocalhost: true, AllowPrivateIPs: true, MaxLength: DefaultMaxURLLength}
}

// ValidateAndNormalize returns the canonical form of input. A missing scheme
// defaults to https.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	case v.MaxLength > 0 && len(input) > v.MaxLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, v.MaxLength)
	case strings.ContainsAny(input, "<>\"'` "):
		return "", fmt.Errorf("%w: contains forbidden characters", ErrInvalidURL)
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if err := v.checkHost(host); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("%w: path traversal", ErrInvalidURL)
	}
	u.Fragment = ""
	return u.String(), nil
}

func (v *FeedURLValidator) checkHost(host string) error {
	host = strings.ToLower(host)
	if isLocalhost(host) {
		if !v.AllowLocalhost {
			return fmt.Errorf("%w: %s is local", ErrBlockedHost, host)
		}
		return nil
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// A name, not an address literal.
		return nil
	}
	if addr.IsUnspecified() || addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	if isLocalAddr(addr) && !v.AllowPrivateIPs {
		return fmt.Errorf("%w: %s is a private address", ErrBlockedHost, host)
	}
	return nil
}

func isLocalhost(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost")
}

func isLocalAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}

package transport

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/grovetools/elementipelago/errors"
)

var schemes = []string{"wss://", "ws://"}

// CandidateURLs returns the URLs tried for address, secure first.
// An explicit ws:// or wss:// prefix is stripped; both schemes are always tried.
func CandidateURLs(address string) ([]string, error) {
	addr := strings.TrimSpace(address)
	for _, scheme := range schemes {
		if len(addr) >= len(scheme) && strings.EqualFold(addr[:len(scheme)], scheme) {
			addr = addr[len(scheme):]
			break
		}
	}
	if addr == "" {
		return nil, errors.AddressInvalid(address, fmt.Errorf("empty address"))
	}

	urls := make([]string, 0, len(schemes))
	for _, scheme := range schemes {
		u, err := url.Parse(scheme + addr)
		if err != nil {
			return nil, errors.AddressInvalid(address, err)
		}
		if u.Host == "" {
			return nil, errors.AddressInvalid(address, fmt.Errorf("no host in %q", addr))
		}
		urls = append(urls, u.String())
	}
	return urls, nil
}

func schemeOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i > 0 {
		return rawURL[:i]
	}
	return "unknown"
}

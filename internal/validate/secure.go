package validate

import (
	"net/url"
	"strings"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
)

// isHTTPS reports whether endpoint parses as a URL with the https
// scheme. Anything unparseable counts as insecure.
func isHTTPS(endpoint string) bool {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return false
	}
	return u.Scheme == "https"
}

// SecureEndpoint rejects a base endpoint that does not use HTTPS. It is
// the construction-time check: a client is never built around an
// unencrypted endpoint.
func SecureEndpoint(endpoint string) error {
	if !isHTTPS(endpoint) {
		return apierr.New(apierr.InsecureTransport, "HTTPS is required for secure API access. Use https:// URLs only.")
	}
	return nil
}

// SecureForCredentials re-checks the current endpoint immediately before
// credentials are attached to a request. The endpoint can be swapped
// after construction, so the construction-time check alone is not
// trusted.
func SecureForCredentials(endpoint string) error {
	if !isHTTPS(endpoint) {
		return apierr.New(apierr.InsecureTransport, "Cannot send credentials over non-HTTPS connection. HTTPS is required for authenticated requests.")
	}
	return nil
}

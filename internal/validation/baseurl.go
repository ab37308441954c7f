// Package validation checks user-supplied connection settings before they
// are stored.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// metadataHosts are cloud instance-metadata endpoints. An API key sent
// there would leak to whatever answers on the instance.
var metadataHosts = []string{
	"169.254.169.254",
	"fd00:ec2::254",
	"metadata",
	"metadata.google.internal",
	"instance-data",
}

// BaseURL validates an API base URL:
//   - the scheme is http or https
//   - a host is present
//   - no user info, query or fragment, since paths and the api-version
//     query are appended to it
//   - the host is not a cloud metadata endpoint
func BaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if u.User != nil {
		return fmt.Errorf("URL must not embed credentials; use --access-token")
	}
	if u.RawQuery != "" || u.ForceQuery {
		return fmt.Errorf("URL must not contain a query; use --api-version for api-version")
	}
	if u.Fragment != "" {
		return fmt.Errorf("URL must not contain a fragment")
	}
	if isMetadataHost(host) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	return nil
}

func isMetadataHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	}
	for _, h := range metadataHosts {
		if host == h {
			return true
		}
	}
	return strings.HasSuffix(host, ".metadata.google.internal")
}

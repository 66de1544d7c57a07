package v1

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// unixBaseURL is the placeholder host used for requests dialed over a unix socket
const unixBaseURL = "http://docker"

// NewEngineTransport returns the base URL and HTTP client needed to reach the engine at host.
// host may be an http(s) URL, a tcp:// address or a unix:// socket path.
func NewEngineTransport(host string) (string, *http.Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", nil, fmt.Errorf("invalid docker host %q: %w", host, err)
	}
	switch u.Scheme {
	case "http", "https":
		return strings.TrimSuffix(host, "/"), &http.Client{}, nil
	case "tcp":
		return "http://" + u.Host, &http.Client{}, nil
	case "unix":
		socket := u.Path
		dialer := &net.Dialer{Timeout: 30 * time.Second}
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, "unix", socket)
			},
		}
		return unixBaseURL, &http.Client{Transport: transport}, nil
	}
	return "", nil, fmt.Errorf("unsupported docker host scheme %q", u.Scheme)
}

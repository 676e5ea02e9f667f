package qdrant

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"multimodal-rag-be/pkg/apperror"
)

const defaultGRPCPort = 6334

// Target is a parsed Qdrant gRPC endpoint.
type Target struct {
	Host   string
	Port   int
	UseTLS bool
}

func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ParseURL validates rawURL before any connection is attempted.
// Accepted forms: http://host[:port] and https://host[:port].
func ParseURL(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, apperror.Wrap(apperror.ErrConfiguration, "qdrant.ParseURL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, apperror.New(apperror.ErrConfiguration, "qdrant.ParseURL",
			fmt.Sprintf("unsupported scheme %q in %q", u.Scheme, rawURL))
	}
	if u.Hostname() == "" {
		return Target{}, apperror.New(apperror.ErrConfiguration, "qdrant.ParseURL",
			fmt.Sprintf("missing host in %q", rawURL))
	}

	port := defaultGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Target{}, apperror.New(apperror.ErrConfiguration, "qdrant.ParseURL",
				fmt.Sprintf("invalid port in %q", rawURL))
		}
	}

	return Target{Host: u.Hostname(), Port: port, UseTLS: u.Scheme == "https"}, nil
}

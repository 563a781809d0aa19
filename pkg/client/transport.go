package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Timeouts and limits of the bundled transports.
// An endpoint with different needs can bring its own http.RoundTripper,
// see Client.WithTransport.
const (
	dialTimeout           = 3 * time.Second
	keepAliveInterval     = 10 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	responseHeaderTimeout = 20 * time.Second
	maxConnectionsPerHost = 32
	http2IdleReadTimeout  = 3 * time.Second
	http2PingTimeout      = 3 * time.Second
	http2WriteTimeout     = 3 * time.Second
)

// DefaultTransport is the transport a new Client sends through.
// It upgrades to HTTP2 when the server supports it.
func DefaultTransport() http.RoundTripper {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer().DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		MaxConnsPerHost:       maxConnectionsPerHost,
		MaxIdleConnsPerHost:   maxConnectionsPerHost,
	}
}

// HTTP2Transport speaks HTTP2 only, the connection fails against a server
// without HTTP2 support.
func HTTP2Transport() http.RoundTripper {
	return &http2.Transport{
		DialTLS: func(network, addr string, cfg *tls.Config) (net.Conn, error) {
			return tls.DialWithDialer(dialer(), network, addr, cfg)
		},
		ReadIdleTimeout:  http2IdleReadTimeout,
		PingTimeout:      http2PingTimeout,
		WriteByteTimeout: http2WriteTimeout,
	}
}

func dialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepAliveInterval,
	}
}

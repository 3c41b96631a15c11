package fetcher

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newHTTPClient builds the client used for probes and transfers.
// There is no overall Client.Timeout: archives can take many minutes. Each
// phase is bounded instead (dial, handshake, headers, and the idle watchdog).
func newHTTPClient(opts Options) *http.Client {
	dialer := &net.Dialer{
		Timeout:   opts.ProbeTimeout,
		KeepAlive: 30 * time.Second,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   opts.ProbeTimeout,
		ResponseHeaderTimeout: opts.IdleTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !opts.VerifyTLS, //nolint:gosec // opt-in verification, see Options.VerifyTLS
		},
	}

	return &http.Client{Transport: tr}
}

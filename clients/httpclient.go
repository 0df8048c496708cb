package clients

import (
	"net"
	"net/http"
	"time"

	"github.com/emzola/flibooks/config"
)

// NewTransport returns the connection pool shared by every search backend
// request. A response must start arriving within the configured timeout.
func NewTransport(cfg config.Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          25,
		MaxIdleConnsPerHost:   25,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: cfg.Elastic.Timeout,
	}
}

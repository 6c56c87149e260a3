package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/wishbot/core/telegram/netutil"
)

// HTTPClientOptions tunes BuildHTTPClient. Zero values select the defaults below.
type HTTPClientOptions struct {
	// Timeout bounds a whole request; it must exceed the long poll timeout.
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
}

const (
	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultClientTimeout   = 30 * time.Second
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client for Bot API calls that retries transient transport errors.
func BuildHTTPClient(opts ...HTTPClientOptions) *http.Client {
	o := HTTPClientOptions{}
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultClientTimeout
	}
	if o.Retries <= 0 {
		o.Retries = defaultRetryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultRetryBackoff
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout: o.Timeout,
		Transport: &retryTransport{
			base:    transport,
			retries: o.Retries,
			backoff: o.RetryBackoff,
		},
	}
}

// retryTransport replays a request after a transient failure when its body can be rewound.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	for attempt := 1; attempt <= t.retries && err != nil && netutil.ShouldRetry(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			return nil, err
		}
		if sleepErr := netutil.Sleep(req.Context(), netutil.Backoff(t.backoff, attempt)); sleepErr != nil {
			return nil, sleepErr
		}
		next := req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			next.Body = body
		}
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}

package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default request timeout of a Builder.
const DefaultTimeout = 60 * time.Second

// Builder resolves endpoints to transport-level requests.
// It is an immutable value, the With* methods return a modified clone.
type Builder struct {
	baseURL     *url.URL
	cachePolicy CachePolicy
	timeout     time.Duration
}

// NewBuilder creates a Builder with no base URL,
// the protocol cache policy and the default timeout.
func NewBuilder() Builder {
	return Builder{cachePolicy: UseProtocolCachePolicy, timeout: DefaultTimeout}
}

// WithBaseURL returns a clone of the Builder with base url set.
// Relative endpoint URLs are resolved against it.
func (b Builder) WithBaseURL(baseURLStr string) Builder {
	baseURL, err := url.Parse(strings.TrimRight(baseURLStr, "/"))
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURLStr, err))
	}
	// Normalize the path, so baseURL.Parse(...) keeps it as a prefix
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/"
	b.baseURL = baseURL
	return b
}

// WithCachePolicy returns a clone of the Builder with cache policy set.
func (b Builder) WithCachePolicy(policy CachePolicy) Builder {
	b.cachePolicy = policy
	return b
}

// WithTimeout returns a clone of the Builder with request timeout set.
func (b Builder) WithTimeout(timeout time.Duration) Builder {
	b.timeout = timeout
	return b
}

// BaseURL returns the configured base URL, empty string when none is set.
func (b Builder) BaseURL() string {
	if b.baseURL == nil {
		return ""
	}
	return b.baseURL.String()
}

// Build resolves the endpoint URL against the base URL and produces a
// Request carrying the configured cache policy and timeout, the endpoint
// headers and method, and the body produced by the endpoint.
//
// The endpoint is not mutated, a body failure is propagated unchanged.
func (b Builder) Build(ctx context.Context, endpoint Endpoint) (*Request, error) {
	urlStr := endpoint.URL()

	// Convert to absolute url
	var reqURL *url.URL
	var err error
	if b.baseURL == nil {
		reqURL, err = url.Parse(urlStr)
	} else {
		// A single leading slash is stripped so the base path stays a
		// prefix, a double slash is a scheme-relative URL and is kept.
		ref := urlStr
		if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
			ref = ref[1:]
		}
		reqURL, err = b.baseURL.Parse(ref)
	}
	if err != nil {
		return nil, &InvalidURLError{URL: urlStr, BaseURL: b.BaseURL(), Err: err}
	}
	if !reqURL.IsAbs() || reqURL.Host == "" {
		return nil, &InvalidURLError{URL: urlStr, BaseURL: b.BaseURL()}
	}

	// Body failures, e.g. from the formdata builder, belong to the caller
	body, err := endpoint.Body()
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(endpoint.Method())
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	for k, v := range endpoint.Headers() {
		req.Header.Set(k, v)
	}
	if directive := b.cachePolicy.CacheControl(); directive != "" {
		req.Header.Set("Cache-Control", directive)
	}

	if body != nil {
		// GetBody allows the transport to replay the body on redirect/retry
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		req.Body, _ = req.GetBody()
		req.ContentLength = int64(len(body))
	}

	return &Request{Request: req, CachePolicy: b.cachePolicy, Timeout: b.timeout}, nil
}

// Package client sends requests built by the request package.
//
// Client is a default implementation of the transport collaborator.
// It is based on the standard net/http package and adds retries, response
// decoding and tracing hooks. A custom transport can be used instead by
// implementing http.RoundTripper.
//
// WaitGroup and RunGroup are helpers for concurrent requests.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/duytph/networkable/pkg/request"
)

// userAgent of the Client.
const userAgent = "networkable-go-client"

// spanName of the span wrapping one Send call.
const spanName = "networkable.client.send"

// Client is a default and configurable transport built on net/http.
// It is an immutable value, the With* methods return a modified clone.
type Client struct {
	transport    http.RoundTripper
	builder      request.Builder
	header       http.Header
	retry        RetryConfig
	traceFactory TraceFactory
	tracer       trace.Tracer
}

// New creates a new Client with the default transport, retries and
// request builder.
func New() Client {
	c := Client{
		transport: DefaultTransport(),
		builder:   request.NewBuilder(),
		header:    make(http.Header),
		retry:     DefaultRetry(),
	}
	c.header.Set("User-Agent", userAgent)
	c.header.Set("Accept-Encoding", "gzip, br")
	return c
}

// WithBaseURL returns a clone of the Client with base url set.
func (c Client) WithBaseURL(baseURL string) Client {
	c.builder = c.builder.WithBaseURL(baseURL)
	return c
}

// WithCachePolicy returns a clone of the Client with cache policy set.
func (c Client) WithCachePolicy(policy request.CachePolicy) Client {
	c.builder = c.builder.WithCachePolicy(policy)
	return c
}

// WithTimeout returns a clone of the Client with request timeout set.
func (c Client) WithTimeout(timeout time.Duration) Client {
	c.builder = c.builder.WithTimeout(timeout)
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	return c.WithHeader("User-Agent", v)
}

// WithHeader returns a clone of the Client with a common header set.
// Endpoint headers take precedence over common headers.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithHeaders returns a clone of the Client with common headers set.
func (c Client) WithHeaders(headers map[string]string) Client {
	c.header = c.header.Clone()
	for k, v := range headers {
		c.header.Set(k, v)
	}
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithRetry returns a clone of the Client with retry config set.
func (c Client) WithRetry(retry RetryConfig) Client {
	c.retry = retry
	return c
}

// WithTrace returns a clone of the Client with Trace hooks set.
func (c Client) WithTrace(fn TraceFactory) Client {
	c.traceFactory = fn
	return c
}

// WithTracerProvider returns a clone of the Client with telemetry spans
// enabled, one span wraps each Send call.
func (c Client) WithTracerProvider(provider trace.TracerProvider) Client {
	c.tracer = provider.Tracer("github.com/duytph/networkable")
	return c
}

// Send builds the endpoint request and sends it.
//
// The response body is mapped to resultDef, if it is not nil.
// Supported resultDef types are `*[]byte`, `*string`, `io.Writer`,
// `io.WriteCloser` and a pointer to a JSON-decodable value.
func (c Client) Send(ctx context.Context, endpoint request.Endpoint, resultDef any) (res *http.Response, err error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	// Init trace hooks
	var tr *Trace
	if c.traceFactory != nil {
		tr = c.traceFactory()
		if tr != nil {
			ctx = httptrace.WithClientTrace(ctx, &tr.ClientTrace)
		}
	}
	if tr != nil && tr.GotRequest != nil {
		tr.GotRequest(endpoint)
	}

	// Build transport-level request
	req, err := c.builder.Build(ctx, endpoint)
	if err != nil {
		if tr != nil && tr.RequestProcessed != nil {
			tr.RequestProcessed(err)
		}
		return nil, err
	}

	// Telemetry span
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(
			ctx,
			spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.URL.String()),
			),
		)
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
		req.Request = req.Request.WithContext(ctx)
	}

	// Common headers, endpoint headers take precedence
	for k, values := range c.header {
		if _, found := req.Header[k]; found {
			continue
		}
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	// Setup native client, the request timeout applies to all retries
	nativeClient := http.Client{
		Timeout:   req.Timeout,
		Transport: roundTripper{retry: c.retry, trace: tr, wrapped: c.transport},
	}

	// Send request
	startedAt := time.Now()
	res, err = nativeClient.Do(req.Request)

	// Trace request processed
	if tr != nil && tr.RequestProcessed != nil {
		defer func() {
			tr.RequestProcessed(err)
		}()
	}

	// Handle send error
	if err != nil {
		return nil, handleSendError(startedAt, req.Timeout, req.Request, err)
	}

	// Process body
	if err := handleResponseBody(res, resultDef); err != nil {
		return res, fmt.Errorf(`cannot process response of %s "%s": %w`, req.Method, req.URL.String(), err)
	}

	// Generic HTTP error
	if res.StatusCode > 399 {
		return res, fmt.Errorf(`request %s "%s" failed: %d %s`, req.Method, req.URL.String(), res.StatusCode, http.StatusText(res.StatusCode))
	}

	return res, nil
}

// SendOrErr sends the endpoint request and discards the response.
func (c Client) SendOrErr(ctx context.Context, endpoint request.Endpoint) error {
	_, err := c.Send(ctx, endpoint, nil)
	return err
}

func handleResponseBody(res *http.Response, resultDef any) error {
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent || resultDef == nil {
		return nil
	}

	// Process content encoding
	body, err := decodeBody(res.Body, res.Header.Get("Content-Encoding"))
	if err != nil {
		return err
	}

	switch v := resultDef.(type) {
	case *[]byte:
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf(`cannot read response body: %w`, err)
		}
		*v = bodyBytes
	case *string:
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf(`cannot read response body: %w`, err)
		}
		*v = string(bodyBytes)
	case io.WriteCloser:
		if _, err := io.Copy(v, body); err != nil {
			return fmt.Errorf(`cannot read response body: %w`, err)
		}
		if err := v.Close(); err != nil {
			return fmt.Errorf(`cannot close result writer: %w`, err)
		}
	case io.Writer:
		if _, err := io.Copy(v, body); err != nil {
			return fmt.Errorf(`cannot read response body: %w`, err)
		}
	default:
		if res.StatusCode > 199 && res.StatusCode < 300 && isJSONContentType(res.Header.Get("Content-Type")) {
			if err := json.NewDecoder(body).Decode(resultDef); err != nil {
				return fmt.Errorf(`cannot decode JSON result: %w`, err)
			}
		}
	}
	return nil
}

func handleSendError(startedAt time.Time, clientTimeout time.Duration, req *http.Request, err error) error {
	// Timeout
	var netErr net.Error
	if deadline, ok := req.Context().Deadline(); ok && errors.Is(err, context.DeadlineExceeded) {
		err = urlError(req, fmt.Errorf("timeout after %s", deadline.Sub(startedAt)))
	} else if errors.Is(err, context.Canceled) {
		err = urlError(req, fmt.Errorf("canceled after %s", time.Since(startedAt)))
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		if strings.Contains(err.Error(), "Client.Timeout exceeded") {
			err = urlError(req, fmt.Errorf("timeout after %s", clientTimeout))
		} else {
			err = urlError(req, fmt.Errorf("timeout after %s", time.Since(startedAt)))
		}
	}

	// Url error
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf(`request %s "%s" failed: %w`, strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err)
	}

	return err
}

// roundTripper wraps a http.RoundTripper and adds trace and retry functionality.
type roundTripper struct {
	trace   *Trace
	retry   RetryConfig
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	state := rt.retry.NewBackoff()
	attempt := 0
	for {
		if rt.trace != nil && rt.trace.HTTPRequestStart != nil {
			rt.trace.HTTPRequestStart(req)
		}

		res, err := rt.wrapped.RoundTrip(req)

		if rt.trace != nil && rt.trace.HTTPRequestDone != nil {
			rt.trace.HTTPRequestDone(res, err)
		}

		// Check if we should retry
		if rt.retry.Condition == nil || !rt.retry.Condition(res, err) || attempt >= rt.retry.Count {
			return res, err
		}

		delay := state.NextBackOff()
		if delay == backoff.Stop {
			return res, err
		}

		attempt++
		if rt.trace != nil && rt.trace.HTTPRequestRetry != nil {
			rt.trace.HTTPRequestRetry(attempt, delay)
		}

		// Rewind body before retry
		if req.GetBody != nil {
			req.Body, err = req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("cannot rewind body: %w", err)
			}
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.NewTimer(delay).C:
			// time elapsed, retry
		}
	}
}

func urlError(req *http.Request, err error) *url.Error {
	return &url.Error{Op: req.Method, URL: req.URL.String(), Err: err}
}

package client_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	. "github.com/duytph/networkable/pkg/client"
)

func TestRetryDelays(t *testing.T) {
	t.Parallel()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewStringResponder(504, "test"))

	retryCount := 10
	var delays []time.Duration

	ctx := context.Background()
	c := New().
		WithTransport(transport).
		WithRetry(RetryConfig{
			Condition:     DefaultRetryCondition(),
			Count:         retryCount,
			WaitTimeStart: 1 * time.Microsecond,
			WaitTimeMax:   20 * time.Microsecond,
		}).
		WithTrace(func() *Trace {
			return &Trace{
				HTTPRequestRetry: func(_ int, delay time.Duration) {
					delays = append(delays, delay)
				},
			}
		})

	_, err := c.Send(ctx, testEndpoint{url: "https://example.com", method: "get"}, nil)
	assert.Error(t, err)
	assert.Equal(t, `request GET "https://example.com" failed: 504 Gateway Timeout`, err.Error())

	// Check number of requests
	assert.Equal(t, 1+retryCount, transport.GetCallCountInfo()["GET https://example.com"])

	// Check exponential delays
	assert.Equal(t, []time.Duration{
		1 * time.Microsecond,
		2 * time.Microsecond,
		4 * time.Microsecond,
		8 * time.Microsecond,
		16 * time.Microsecond,
		20 * time.Microsecond,
		20 * time.Microsecond,
		20 * time.Microsecond,
		20 * time.Microsecond,
		20 * time.Microsecond,
	}, delays)
}

func TestRetryBodyRewind(t *testing.T) {
	t.Parallel()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", `https://example.com`, func(req *http.Request) (*http.Response, error) {
		requestBody, err := io.ReadAll(req.Body)
		assert.NoError(t, err)
		// Each retry attempt must send same body
		assert.Equal(t, "payload", string(requestBody))
		return httpmock.NewStringResponse(502, "retry!"), nil
	})

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())

	endpoint := testEndpoint{url: "https://example.com", method: "post", body: []byte("payload")}
	_, err := c.Send(ctx, endpoint, nil)
	assert.Error(t, err)
	assert.Equal(t, `request POST "https://example.com" failed: 502 Bad Gateway`, err.Error())

	// Check number of requests
	assert.Equal(t, 1+5, transport.GetCallCountInfo()["POST https://example.com"])
}

func TestDoNotRetry(t *testing.T) {
	t.Parallel()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com", httpmock.NewStringResponder(403, "test"))

	var delays []time.Duration

	ctx := context.Background()
	c := New().
		WithTransport(transport).
		WithRetry(DefaultRetry()).
		WithTrace(func() *Trace {
			return &Trace{
				HTTPRequestRetry: func(_ int, delay time.Duration) {
					delays = append(delays, delay)
				},
			}
		})

	_, err := c.Send(ctx, testEndpoint{url: "https://example.com", method: "get"}, nil)
	assert.Error(t, err)
	assert.Equal(t, `request GET "https://example.com" failed: 403 Forbidden`, err.Error())

	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com"])
	assert.Empty(t, delays)
}

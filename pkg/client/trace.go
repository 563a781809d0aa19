package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/http/httputil"
	"strings"
	"sync/atomic"
	"time"

	"github.com/duytph/networkable/pkg/request"
)

const dumpTraceMaxLength = 2000

// Trace is a set of hooks to run at various stages of an outgoing request.
type Trace struct {
	httptrace.ClientTrace // native, low level trace
	// GotRequest is called when Client.Send method is called.
	GotRequest func(endpoint request.Endpoint)
	// RequestProcessed is called when Client.Send method is done.
	RequestProcessed func(err error)
	// HTTPRequestStart is called when the request begins. It includes redirects and retries.
	HTTPRequestStart func(request *http.Request)
	// HTTPRequestDone is called when the request completes. It includes redirects and retries.
	HTTPRequestDone func(response *http.Response, err error)
	// HTTPRequestRetry is called before retry delay.
	HTTPRequestRetry func(attempt int, delay time.Duration)
}

// TraceFactory creates Trace hooks for a request.
type TraceFactory func() *Trace

type logTrace struct {
	Trace
	wr io.Writer
}

// LogTracer writes a line per request lifecycle event to a writer.
func LogTracer(wr io.Writer) TraceFactory {
	var idGenerator uint64
	return func() *Trace {
		requestID := atomic.AddUint64(&idGenerator, 1)

		var req *http.Request
		var connStartTime time.Time
		var startTime time.Time
		var statusCode int

		t := &logTrace{wr: wr}
		t.ConnectStart = func(network, addr string) {
			connStartTime = time.Now()
		}
		t.GotConn = func(info httptrace.GotConnInfo) {
			var infoStr string
			if info.Reused {
				if info.WasIdle {
					infoStr = fmt.Sprintf("reused conn (was idle=%s)", info.IdleTime)
				} else {
					infoStr = "reused conn"
				}
			} else {
				infoStr = fmt.Sprintf("new conn | %s", time.Since(connStartTime))
			}
			t.log(requestID, fmt.Sprintf(`CONN  %s "%s" | %s`, req.Method, req.URL.String(), infoStr))
		}
		t.HTTPRequestStart = func(r *http.Request) {
			req = r
			startTime = time.Now()
			t.log(requestID, fmt.Sprintf(`START %s "%s"`, req.Method, req.URL.String()))
		}
		t.HTTPRequestDone = func(r *http.Response, err error) {
			var errorStr string
			if err == nil {
				statusCode = r.StatusCode
			} else {
				errorStr = fmt.Sprintf(" | error=%s", err)
			}
			t.log(requestID, fmt.Sprintf(`DONE  %s "%s" | %d | %s%s`, req.Method, req.URL.String(), statusCode, time.Since(startTime).String(), errorStr))
		}
		t.HTTPRequestRetry = func(attempt int, delay time.Duration) {
			t.log(requestID, fmt.Sprintf(`RETRY %s "%s" | %dx | %s`, req.Method, req.URL.String(), attempt, delay))
		}
		t.RequestProcessed = func(err error) {
			var errorStr string
			if err != nil {
				errorStr = fmt.Sprintf(" | error=%s", err)
			}
			t.log(requestID, fmt.Sprintf(`DONE  ALL | %s%s`, time.Since(startTime).String(), errorStr))
		}
		return &t.Trace
	}
}

func (t *logTrace) log(requestID uint64, a ...any) {
	a = append([]any{fmt.Sprintf("HTTP_REQUEST[%04d]", requestID)}, a...)
	fmt.Fprintln(t.wr, a...)
}

type dumpTrace struct {
	Trace
	wr io.Writer
}

// DumpTracer dumps HTTP request and response to a writer.
// Output may contain unmasked tokens, do not use it in production!
func DumpTracer(wr io.Writer) TraceFactory {
	return func() *Trace {
		var requestDump []byte

		t := &dumpTrace{wr: wr}
		t.HTTPRequestStart = func(r *http.Request) {
			requestDump, _ = httputil.DumpRequestOut(r, true)
		}
		t.HTTPRequestDone = func(r *http.Response, err error) {
			// Dump request
			t.log()
			t.log(">>>>>> HTTP DUMP")
			t.dump(string(requestDump))
			t.log("------")

			// Response can be nil, for example, if some network error occurred
			if err != nil {
				t.log("ERROR: ", err)
			} else {
				// Dump response headers
				if v, err := httputil.DumpResponse(r, false); err == nil {
					t.log(strings.TrimSpace(string(v)))
				} else {
					t.log("cannot dump response headers: ", err)
				}
				// Dump response body, decoded, the raw body is set back to the response
				if r.Body != nil {
					var rawBody bytes.Buffer
					var decodedBody strings.Builder
					bodyReader, err := decodeBody(io.NopCloser(io.TeeReader(r.Body, &rawBody)), r.Header.Get("Content-Encoding"))
					if err != nil {
						t.log("cannot read response body: ", err)
					}
					if _, err := io.Copy(&decodedBody, bodyReader); err != nil {
						t.log("cannot read response body: ", err)
					}
					r.Body = io.NopCloser(bytes.NewReader(rawBody.Bytes()))
					t.log("------")
					t.dump(decodedBody.String())
				}
			}
			t.log("<<<<<< HTTP DUMP END")
		}
		t.HTTPRequestRetry = func(attempt int, delay time.Duration) {
			t.log()
			t.log(">>>>>> HTTP RETRY", "| ATTEMPT:", attempt, "| DELAY:", delay)
		}
		return &t.Trace
	}
}

func (t *dumpTrace) dump(body string) {
	body = strings.TrimSpace(body)
	if len(body) > dumpTraceMaxLength {
		t.log(body[:dumpTraceMaxLength])
		t.log("... (output truncated)")
	} else {
		t.log(body)
	}
}

func (t *dumpTrace) log(a ...any) {
	fmt.Fprintln(t.wr, a...)
}

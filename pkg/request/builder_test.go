package request_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duytph/networkable/pkg/formdata"
	"github.com/duytph/networkable/pkg/request"
)

// testEndpoint is a declarative endpoint for tests.
type testEndpoint struct {
	headers map[string]string
	url     string
	method  string
	body    func() ([]byte, error)
}

func (e testEndpoint) Headers() map[string]string { return e.headers }
func (e testEndpoint) URL() string                { return e.url }
func (e testEndpoint) Method() string             { return e.method }

func (e testEndpoint) Body() ([]byte, error) {
	if e.body == nil {
		return nil, nil
	}
	return e.body()
}

func TestBuilder_Immutability(t *testing.T) {
	t.Parallel()
	a := request.NewBuilder()
	b := a.WithBaseURL("https://a.example.com")
	c := b.WithBaseURL("https://b.example.com")

	assert.Equal(t, "", a.BaseURL())
	assert.Equal(t, "https://a.example.com/", b.BaseURL())
	assert.Equal(t, "https://b.example.com/", c.BaseURL())
}

func TestBuilder_Build_ResolvesRelativeURL(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")

	req, err := builder.Build(context.Background(), testEndpoint{url: "/users", method: "get"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users", req.URL.String())
}

func TestBuilder_Build_KeepsBasePathPrefix(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com/v1/")

	req, err := builder.Build(context.Background(), testEndpoint{url: "/users", method: "get"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/users", req.URL.String())
}

func TestBuilder_Build_SchemeRelativeURL(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")

	req, err := builder.Build(context.Background(), testEndpoint{url: "//cdn.example.com/assets/logo.png", method: "get"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/assets/logo.png", req.URL.String())
}

func TestBuilder_Build_KeepsAbsoluteURL(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")

	req, err := builder.Build(context.Background(), testEndpoint{url: "https://other.example.com/v1/users", method: "get"})
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/v1/users", req.URL.String())
}

func TestBuilder_Build_InvalidURL(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder()

	req, err := builder.Build(context.Background(), testEndpoint{url: "not a url", method: "get"})
	assert.Nil(t, req)

	var typedErr *request.InvalidURLError
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, "not a url", typedErr.URL)
	assert.Equal(t, "", typedErr.BaseURL)
}

func TestBuilder_Build_UpperCasesMethod(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")

	req, err := builder.Build(context.Background(), testEndpoint{url: "/users", method: "get"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)

	req, err = builder.Build(context.Background(), testEndpoint{url: "/users", method: "pAtCh"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, req.Method)
}

func TestBuilder_Build_CopiesHeaders(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")
	endpoint := testEndpoint{url: "/users", method: "get", headers: map[string]string{"foo": "bar"}}

	req, err := builder.Build(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Equal(t, "bar", req.Header.Get("foo"))
	assert.Len(t, req.Header, 1)
}

func TestBuilder_Build_CachePolicyAndTimeout(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().
		WithBaseURL("https://api.example.com").
		WithCachePolicy(request.ReloadIgnoringCacheData).
		WithTimeout(5 * time.Second)

	req, err := builder.Build(context.Background(), testEndpoint{url: "/users", method: "get"})
	require.NoError(t, err)
	assert.Equal(t, request.ReloadIgnoringCacheData, req.CachePolicy)
	assert.Equal(t, 5*time.Second, req.Timeout)
	assert.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
}

func TestBuilder_Build_Body(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")
	endpoint := testEndpoint{
		url:    "/users",
		method: "post",
		body:   func() ([]byte, error) { return []byte("payload"), nil },
	}

	req, err := builder.Build(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), req.ContentLength)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	// GetBody replays the body for redirects and retries
	replay, err := req.GetBody()
	require.NoError(t, err)
	body, err = io.ReadAll(replay)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestBuilder_Build_PropagatesBodyError(t *testing.T) {
	t.Parallel()
	builder := request.NewBuilder().WithBaseURL("https://api.example.com")
	bodyErr := errors.New("cannot build body")
	endpoint := testEndpoint{
		url:    "/users",
		method: "post",
		body:   func() ([]byte, error) { return nil, bodyErr },
	}

	req, err := builder.Build(context.Background(), endpoint)
	assert.Nil(t, req)
	assert.Equal(t, bodyErr, err)
}

func TestBuilder_Build_MultipartBody(t *testing.T) {
	t.Parallel()
	form := formdata.New().WithBoundary("fixed")
	form.AppendData([]byte("value"), "field", "", "")

	builder := request.NewBuilder().WithBaseURL("https://api.example.com")
	endpoint := testEndpoint{
		url:     "/upload",
		method:  "post",
		headers: map[string]string{"Content-Type": form.ContentType()},
		body:    form.Build,
	}

	req, err := builder.Build(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary=fixed", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "--fixed\r\n")
	assert.Contains(t, string(body), `form-data; name="field"`)
}

func TestCachePolicy_CacheControl(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", request.UseProtocolCachePolicy.CacheControl())
	assert.Equal(t, "no-cache", request.ReloadIgnoringCacheData.CacheControl())
	assert.Equal(t, "max-stale", request.ReturnCacheDataElseLoad.CacheControl())
	assert.Equal(t, "only-if-cached", request.ReturnCacheDataDontLoad.CacheControl())
}

// Package request turns a declarative description of an HTTP call, an
// Endpoint, into a ready-to-send request.
//
// Use Builder to resolve an Endpoint against a base URL and produce a
// Request value for a transport. Multipart bodies are built by the
// formdata package, an Endpoint.Body implementation may call into it.
package request

// Endpoint is a caller-supplied description of a logical HTTP request.
// Implementations must be immutable from the builder's perspective.
type Endpoint interface {
	// Headers returns the header mapping of the request, may be nil.
	Headers() map[string]string
	// URL returns the URL of the request, absolute or relative to the
	// base URL of the Builder.
	URL() string
	// Method returns the HTTP method token, in any case.
	Method() string
	// Body produces the request body, nil means no body.
	Body() ([]byte, error)
}

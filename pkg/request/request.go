package request

import (
	"net/http"
	"time"
)

// CachePolicy selects how a cache interacts with the request.
// It is carried on the Request for the transport, the Builder additionally
// renders it to a Cache-Control request directive where one exists.
type CachePolicy int

const (
	// UseProtocolCachePolicy defers caching to the HTTP protocol rules.
	UseProtocolCachePolicy CachePolicy = iota
	// ReloadIgnoringCacheData always loads from the origin.
	ReloadIgnoringCacheData
	// ReturnCacheDataElseLoad prefers cached data regardless of its age,
	// loads from the origin only on a cache miss.
	ReturnCacheDataElseLoad
	// ReturnCacheDataDontLoad returns cached data only, never loads.
	ReturnCacheDataDontLoad
)

// CacheControl returns the Cache-Control request directive for the policy,
// empty string when the protocol default applies.
func (p CachePolicy) CacheControl() string {
	switch p {
	case ReloadIgnoringCacheData:
		return "no-cache"
	case ReturnCacheDataElseLoad:
		return "max-stale"
	case ReturnCacheDataDontLoad:
		return "only-if-cached"
	default:
		return ""
	}
}

// Request is a fully formed, transport-level request.
// Ownership passes to the transport that sends it.
type Request struct {
	*http.Request
	// CachePolicy the request was built with.
	CachePolicy CachePolicy
	// Timeout for the whole request, zero means no timeout.
	// The transport is responsible for enforcing it.
	Timeout time.Duration
}

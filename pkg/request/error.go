package request

import (
	"fmt"
)

// InvalidURLError is returned when the endpoint URL does not resolve to an
// absolute URL against the base URL of the Builder.
type InvalidURLError struct {
	URL     string
	BaseURL string
	Err     error
}

func (e *InvalidURLError) Error() string {
	msg := fmt.Sprintf(`invalid url "%s", base url "%s"`, e.URL, e.BaseURL)
	if e.Err != nil {
		msg += fmt.Sprintf(": %s", e.Err)
	}
	return msg
}

func (e *InvalidURLError) Unwrap() error {
	return e.Err
}

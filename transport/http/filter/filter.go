package filter

import "net/http"

// Filter wraps a plain http.Handler, running before routing.
type Filter func(handler http.Handler) http.Handler

// Handle applies filters so that the first one is outermost.
func Handle(handler http.Handler, filters ...Filter) http.Handler {
	for i := len(filters) - 1; i >= 0; i-- {
		handler = filters[i](handler)
	}
	return handler
}

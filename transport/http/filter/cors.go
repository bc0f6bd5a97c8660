package filter

import (
	"net/http"

	utils "github.com/go-slark/svcindex/pkg"
	"github.com/rs/cors"
)

type CORSOption func(options *cors.Options)

func AllowCredentials(allow bool) CORSOption {
	return func(options *cors.Options) {
		options.AllowCredentials = allow
	}
}

func AllowedMethods(methods ...string) CORSOption {
	return func(options *cors.Options) {
		options.AllowedMethods = methods
	}
}

// AllowedOrigins replaces the allow-all origin policy.
func AllowedOrigins(origins ...string) CORSOption {
	return func(options *cors.Options) {
		options.AllowOriginFunc = nil
		options.AllowedOrigins = origins
	}
}

func AllowedHeaders(headers ...string) CORSOption {
	return func(options *cors.Options) {
		options.AllowedHeaders = headers
	}
}

func MaxAge(age int) CORSOption {
	return func(options *cors.Options) {
		options.MaxAge = age
	}
}

func CORS(opts ...CORSOption) Filter {
	options := cors.Options{
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowOriginFunc: func(origin string) bool { return true },
		AllowedHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Accept", "Accept-Encoding", utils.TraceID},
		ExposedHeaders:  []string{utils.TraceID},
		MaxAge:          43200, // 12 hours
	}
	for _, opt := range opts {
		opt(&options)
	}
	c := cors.New(options)
	return func(handler http.Handler) http.Handler {
		return c.Handler(handler)
	}
}

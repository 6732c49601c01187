package server

import (
	"net/http"

	"github.com/rs/cors"
)

// withCORS allows cross-origin GET and POST requests from origin only.
// Any request header is allowed.
func withCORS(h http.Handler, origin string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(h)
}

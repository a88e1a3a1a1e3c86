package httpx

import "net/http"

// Middleware wraps an http.Handler. It has the shape chi's Use and With
// expect.
type Middleware func(http.Handler) http.Handler

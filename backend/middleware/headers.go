package middleware

import "net/http"

// APIHeaders sets the response headers shared by every JSON endpoint.
func APIHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		// Responses are JSON only; nothing should ever be rendered or framed.
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		// Usage data changes on every access event.
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

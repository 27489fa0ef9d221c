package verify

import (
	"net/http"
	"strings"
)

// requestURI reconstructs the absolute URI that the client requested. If
// trustProto is set, X-Forwarded-Proto overrides the scheme implied by r.TLS.
func requestURI(r *http.Request, trustProto bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); trustProto && p != "" {
		scheme, _, _ = strings.Cut(p, ",")
		scheme = strings.ToLower(strings.TrimSpace(scheme))
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// ValidateRequest is like Validate, using the URI of the incoming request r
// (i.e., the followed link). This assumes route URLs were resolved against the
// same scheme and host that r was served on. Behind a TLS-terminating proxy,
// set Options.TrustForwardedProto so the original scheme is recovered.
func (h *Helper) ValidateRequest(r *http.Request, userID, userEmail string) (bool, error) {
	return h.Validate(requestURI(r, h.trustProto), userID, userEmail)
}

package http

import (
	"net/http"
	"strings"

	"sellerpromotions/admin-api/internal/core/identity"
	ctxutil "sellerpromotions/admin-api/internal/infrastructure/context"
)

const (
	siteCookie = "cookieSiteId"
	labCookie  = "meliLab"
)

// ScopeFromRequest extracts the inputs of the upstream configuration.
func ScopeFromRequest(r *http.Request) identity.Scope {
	return identity.Scope{
		QuerySiteID:  r.URL.Query().Get("siteId"),
		CookieSiteID: cookieValue(r, siteCookie),
		LabVersion:   cookieValue(r, labCookie),
	}
}

// RequestInfoFrom describes the inbound request for audit records.
func RequestInfoFrom(r *http.Request) identity.RequestInfo {
	ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if ip == "" {
		ip = r.RemoteAddr
	}
	return identity.RequestInfo{
		TraceID:  ctxutil.GetTraceID(r.Context()),
		IP:       ip,
		Endpoint: r.URL.RequestURI(),
		Method:   r.Method,
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

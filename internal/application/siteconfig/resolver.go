package siteconfig

import (
	"fmt"

	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/core/middleend"
	"sellerpromotions/admin-api/internal/infrastructure/config"
)

// Resource selects the path template of a middleend resource.
type Resource int

const (
	Promotions Resource = iota
	Items
	Credibility
)

const (
	fallbackSiteID = "MLA"
	remotePrefix   = "/seller-promotions/admin-middleend"
	batchFilesPath = "/seller-promotions/batch/files/"
	batchPath      = "/seller-promotions/batch/"
)

type template struct {
	suffix   string
	fallback string
}

var templates = map[Resource]template{
	Promotions:  {suffix: "promotions", fallback: fallbackSiteID},
	Items:       {suffix: "items", fallback: fallbackSiteID},
	Credibility: {suffix: "credibility_whitelist"},
}

// Resolver builds the upstream configuration of each request. It holds only
// values fixed at startup and is safe for concurrent use.
type Resolver struct {
	local bool
	scope string
}

func NewResolver(cfg config.MiddleendSettings) *Resolver {
	return &Resolver{local: cfg.Local(), scope: cfg.Scope}
}

// Resolve returns the configuration for resource. The site is the first
// non-empty of defaultSiteID, the siteId query, the site cookie and, for
// promotions and items only, MLA. The version is the lab cookie or the
// configured scope.
func (r *Resolver) Resolve(resource Resource, scope identity.Scope, defaultSiteID string) middleend.Config {
	tpl := templates[resource]

	return middleend.Config{
		SiteID:  firstNonEmpty(defaultSiteID, scope.QuerySiteID, scope.CookieSiteID, tpl.fallback),
		Version: firstNonEmpty(scope.LabVersion, r.scope),
		URL:     r.builder(tpl.suffix),
	}
}

func (r *Resolver) Promotions(scope identity.Scope) middleend.Config {
	return r.Resolve(Promotions, scope, "")
}

func (r *Resolver) Items(scope identity.Scope) middleend.Config {
	return r.Resolve(Items, scope, "")
}

func (r *Resolver) Credibility(scope identity.Scope) middleend.Config {
	return r.Resolve(Credibility, scope, "")
}

// Scope is the configured middleend scope. Batch uploads send it instead of
// the lab cookie.
func (r *Resolver) Scope() string {
	return r.scope
}

// BatchFilesPath is the batch file processing path, identical in every mode.
func (r *Resolver) BatchFilesPath(path string) string {
	return batchFilesPath + path
}

// BatchPath is the massive operations path, identical in every mode.
func (r *Resolver) BatchPath(path string) string {
	return batchPath + path
}

func (r *Resolver) builder(suffix string) middleend.PathBuilder {
	prefix := remotePrefix
	if r.local {
		prefix = ""
	}
	return func(siteID string) string {
		return fmt.Sprintf("%s/sites/%s/%s", prefix, siteID, suffix)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

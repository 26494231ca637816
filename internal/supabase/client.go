// Package supabase reads tasks and keeps notification tracking records
// through the PostgREST gateway of a hosted Postgres database.
package supabase

import (
	"net/http"
	"strings"

	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/restclient"
)

// restPrefix is where PostgREST is mounted under the project URL.
const restPrefix = "/rest/v1"

// NewClient creates a REST client for the project in cfg, authenticated
// with the service key.
func NewClient(cfg model.SupabaseConfig, opts ...restclient.Option) *restclient.Client {
	header := http.Header{}
	header.Set("apikey", cfg.ServiceKey)
	header.Set("Authorization", "Bearer "+cfg.ServiceKey)
	return restclient.New(strings.TrimRight(cfg.URL, "/")+restPrefix, header, opts...)
}

// eq builds a PostgREST equality filter value.
func eq(v string) string {
	return "eq." + v
}

// prefixLike builds a PostgREST LIKE filter matching values starting with
// prefix. PostgREST uses * as the wildcard in URLs.
func prefixLike(prefix string) string {
	return "like." + prefix + "*"
}

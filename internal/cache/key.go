package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached computation. Components are query-escaped before
// joining, so a tenant or parameter containing ':' '=' or '&' cannot collide
// with another key and no glob metacharacter reaches the backend.
type Key struct {
	Tenant    string
	Operation string
	Params    map[string]string
}

func NewKey(tenant, operation string) Key {
	return Key{Tenant: tenant, Operation: operation, Params: map[string]string{}}
}

// With returns a copy of k with one more parameter.
func (k Key) With(name, value string) Key {
	params := make(map[string]string, len(k.Params)+1)
	for n, v := range k.Params {
		params[n] = v
	}
	params[name] = value
	return Key{Tenant: k.Tenant, Operation: k.Operation, Params: params}
}

func (k Key) String() string {
	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(TenantPrefix(k.Tenant))
	sb.WriteString("op:")
	sb.WriteString(url.QueryEscape(k.Operation))
	sb.WriteString(":")
	for i, name := range names {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(url.QueryEscape(name))
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(k.Params[name]))
	}
	return sb.String()
}

// TenantPrefix is the prefix shared by every key of tenant.
func TenantPrefix(tenant string) string {
	return "tenant:" + url.QueryEscape(tenant) + ":"
}

package interceptor

import (
	"net/http"
	"strings"
)

// Strategy is how a request is served.
type Strategy int

const (
	Passthrough Strategy = iota
	StaleWhileRevalidate
	NetworkFirst
	CacheFirst
)

func (s Strategy) String() string {
	switch s {
	case Passthrough:
		return "passthrough"
	case StaleWhileRevalidate:
		return "stale_while_revalidate"
	case NetworkFirst:
		return "network_first"
	case CacheFirst:
		return "cache_first"
	}
	return "unknown"
}

// Named caches. Each strategy writes into exactly one.
const (
	CacheEmergency = "emergency"
	CacheRemoteDB  = "remote-db"
	CacheStatic    = "static"
	CacheDefault   = "default"
)

// CacheNames lists every named response cache.
var CacheNames = []string{CacheEmergency, CacheRemoteDB, CacheStatic, CacheDefault}

// ResourceKind is the caller's hint about what a request loads.
type ResourceKind string

const (
	KindStyle  ResourceKind = "style"
	KindScript ResourceKind = "script"
	KindImage  ResourceKind = "image"
	KindOther  ResourceKind = "other"
)

// ResourceKindHeader lets non-browser callers state the resource kind. Browsers
// send Sec-Fetch-Dest, which is read when this header is absent.
const ResourceKindHeader = "X-Resource-Kind"

// KindOf reads the resource-kind hint from the request headers.
func KindOf(req *http.Request) ResourceKind {
	hint := req.Header.Get(ResourceKindHeader)
	if hint == "" {
		hint = req.Header.Get("Sec-Fetch-Dest")
	}
	switch ResourceKind(strings.ToLower(hint)) {
	case KindStyle:
		return KindStyle
	case KindScript:
		return KindScript
	case KindImage:
		return KindImage
	}
	return KindOther
}

// Classification is the routing decision for one request.
type Classification struct {
	Strategy  Strategy
	CacheName string
}

// Classify applies the rules in fixed order; the first match wins.
func (r Rules) Classify(req *http.Request) Classification {
	u := req.URL
	host := u.Host
	if host == "" {
		host = req.Host
	}

	if containsAny(u.Path, r.DevToolingPaths) || containsAny(host, r.DevToolingHosts) {
		return Classification{Strategy: Passthrough}
	}
	if containsAny(u.Path, r.EmergencyMarkers) {
		return Classification{Strategy: StaleWhileRevalidate, CacheName: CacheEmergency}
	}
	if matchesHost(host, r.RemoteDBHosts) {
		return Classification{Strategy: NetworkFirst, CacheName: CacheRemoteDB}
	}
	switch KindOf(req) {
	case KindStyle, KindScript, KindImage:
		return Classification{Strategy: CacheFirst, CacheName: CacheStatic}
	}
	if hasExtension(u.Path, r.StaticExtensions) {
		return Classification{Strategy: CacheFirst, CacheName: CacheStatic}
	}
	return Classification{Strategy: NetworkFirst, CacheName: CacheDefault}
}

func matchesHost(host string, hosts []string) bool {
	hostname := strings.ToLower(host)
	if h, _, ok := strings.Cut(hostname, ":"); ok {
		hostname = h
	}
	for _, h := range hosts {
		h = strings.ToLower(h)
		if hostname == h || strings.HasSuffix(hostname, "."+h) {
			return true
		}
	}
	return false
}

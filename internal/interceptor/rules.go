package interceptor

import (
	"path"
	"strings"
)

// Rules drive request classification. Matching is substring-based and case
// insensitive, except StaticExtensions which match the path suffix.
type Rules struct {
	DevToolingPaths  []string `yaml:"dev_tooling_paths"`
	DevToolingHosts  []string `yaml:"dev_tooling_hosts"`
	EmergencyMarkers []string `yaml:"emergency_markers"`
	RemoteDBHosts    []string `yaml:"remote_db_hosts"`
	StaticExtensions []string `yaml:"static_extensions"`
}

// DefaultRules matches a Vite-built web client talking to Firestore.
func DefaultRules() Rules {
	return Rules{
		DevToolingPaths: []string{
			"/@vite/", "/@fs/", "/@id/", "/@react-refresh", "/__vite_ping",
			"/node_modules/", ".hot-update.", "/sockjs-node",
		},
		DevToolingHosts:  []string{"localhost:5173", "127.0.0.1:5173"},
		EmergencyMarkers: []string{"/emergency", "/emergencies"},
		RemoteDBHosts:    []string{"firestore.googleapis.com"},
		StaticExtensions: []string{
			".js", ".mjs", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg",
			".webp", ".ico", ".woff", ".woff2", ".ttf",
		},
	}
}

// Merge fills empty lists in r from defaults so a partial rules file only
// overrides what it names.
func (r Rules) Merge(defaults Rules) Rules {
	if len(r.DevToolingPaths) == 0 {
		r.DevToolingPaths = defaults.DevToolingPaths
	}
	if len(r.DevToolingHosts) == 0 {
		r.DevToolingHosts = defaults.DevToolingHosts
	}
	if len(r.EmergencyMarkers) == 0 {
		r.EmergencyMarkers = defaults.EmergencyMarkers
	}
	if len(r.RemoteDBHosts) == 0 {
		r.RemoteDBHosts = defaults.RemoteDBHosts
	}
	if len(r.StaticExtensions) == 0 {
		r.StaticExtensions = defaults.StaticExtensions
	}
	return r
}

func containsAny(s string, patterns []string) bool {
	s = strings.ToLower(s)
	for _, p := range patterns {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func hasExtension(p string, exts []string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

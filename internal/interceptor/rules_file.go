package interceptor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	platformstrings "bloodbridge/pkg/platform/strings"
)

// LoadRules reads a YAML rules file. Lists the file leaves out keep their
// defaults. An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading interceptor rules %s: %w", path, err)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parsing interceptor rules: %w", err)
	}
	r.DevToolingPaths = platformstrings.DedupeAndTrim(r.DevToolingPaths)
	r.DevToolingHosts = platformstrings.DedupeAndTrimLower(r.DevToolingHosts)
	r.EmergencyMarkers = platformstrings.DedupeAndTrim(r.EmergencyMarkers)
	r.RemoteDBHosts = platformstrings.DedupeAndTrimLower(r.RemoteDBHosts)
	r.StaticExtensions = platformstrings.DedupeAndTrimLower(r.StaticExtensions)
	for _, ext := range r.StaticExtensions {
		if len(ext) < 2 || ext[0] != '.' {
			return Rules{}, fmt.Errorf("static extension %q must start with a dot", ext)
		}
	}
	return r.Merge(DefaultRules()), nil
}

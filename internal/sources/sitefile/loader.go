package sitefile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"seekmark/internal/domain"
)

// Loader handles loading and parsing of the tracked-sites file
type Loader struct {
	filePath string
}

// NewLoader creates a new sites file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses sites.yaml into tracked sites. Entries missing a
// host or query parameter are rejected outright; a silently broken site
// pattern would just make every page look like "no active video".
func (l *Loader) Load() ([]domain.Site, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var config SitesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse sites yaml: %w", err)
	}

	sites := make([]domain.Site, 0, len(config.Sites))
	for i, props := range config.Sites {
		if len(props.Hosts) == 0 {
			return nil, fmt.Errorf("site %d (%s): no hosts", i, props.Name)
		}
		if props.Param == "" {
			return nil, fmt.Errorf("site %d (%s): no video ID parameter", i, props.Name)
		}
		watchPath := props.WatchPath
		if watchPath == "" {
			watchPath = "/watch"
		}
		sites = append(sites, domain.Site{
			Name:      props.Name,
			Hosts:     props.Hosts,
			WatchPath: watchPath,
			Param:     props.Param,
		})
	}

	if len(sites) == 0 {
		return nil, fmt.Errorf("sites file %s defines no sites", l.filePath)
	}

	return sites, nil
}

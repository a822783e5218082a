package sitefile

// SitesConfig is the top-level structure of sites.yaml
type SitesConfig struct {
	Sites []SiteProps `yaml:"sites"`
}

// SiteProps describes one tracked site entry
type SiteProps struct {
	Name      string   `yaml:"name"`
	Hosts     []string `yaml:"hosts"`
	WatchPath string   `yaml:"watchPath"`
	Param     string   `yaml:"param"`
}

package config

// ServiceConfig defines the configuration lifecycle every component config
// follows.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies environment variable overrides
	ApplyEnvOverrides()

	// Validate returns an error if the configuration is invalid.
	Validate() error
}

// PathResolver is implemented by configs holding paths relative to the
// config directory.
type PathResolver interface {
	ResolvePaths(configDir string)
}

// ApplyServiceConfigs runs ApplyDefaults, ApplyEnvOverrides, ResolvePaths
// (when implemented) and Validate on each config in order, stopping at the
// first validation error.
func ApplyServiceConfigs(configDir string, configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		if r, ok := cfg.(PathResolver); ok {
			r.ResolvePaths(configDir)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

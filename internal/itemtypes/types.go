package itemtypes

// TypeConfig describes one folderable item type as declared in the
// embedded configuration file
type TypeConfig struct {
	// Key is the type discriminator used in requests ("document", ...)
	Key string `yaml:"key"`

	// DisplaySuffix is the extension-like suffix appended to titles when
	// rendering display names. Empty = the entity's own name is used
	// as-is (media assets carry a real file name).
	DisplaySuffix string `yaml:"display_suffix"`

	// Enabled allows a deployment to switch a type off without removing
	// its store wiring
	Enabled bool `yaml:"enabled"`
}

// typesFile is the top-level shape of config/itemtypes.yaml
type typesFile struct {
	Types []TypeConfig `yaml:"types"`
}

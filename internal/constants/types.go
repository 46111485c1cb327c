package constants

// Environment represents the execution environment (e.g., CLI, Lambda).
type Environment string

// Environment types for logger configuration.
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)

// OutputFormat is the rendering used by the CLI for envelopes.
type OutputFormat string

const (
	// OutputJSON renders envelopes as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML renders envelopes as YAML.
	OutputYAML OutputFormat = "yaml"
)

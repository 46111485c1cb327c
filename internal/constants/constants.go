// Package constants defines global constants used throughout lambdahttp.
// It includes version information, paths, and configuration keys.
package constants

// ProjectName is the name of the CLI tool and of the environment variable prefix.
const ProjectName = "lambdahttp"

// EnvPrefix is the prefix of every environment variable read by the configuration.
const EnvPrefix = "LAMBDAHTTP"

// HeaderSeparatorLength is the width of the separator printed under CLI section headers.
const HeaderSeparatorLength = 50

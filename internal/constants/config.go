package constants

// DefaultListenAddr is the address the local gateway listens on.
const DefaultListenAddr = "127.0.0.1:9000"

// DefaultStage is the API Gateway stage name used in envelopes built by the local gateway.
const DefaultStage = "$default"

// ConfigDirName is the name of the configuration directory in the user's home directory.
const ConfigDirName = "." + ProjectName

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = "config.yaml"

// ConfigDirPath returns the full path to the global configuration directory.
func ConfigDirPath(homeDir string) string {
	return homeDir + "/" + ConfigDirName
}

// Package cstn checks dynamic controllability of conditional simple
// temporal networks with uncertainty.
//
// Version: 0.1.0
//
// The package implements the labeled-value constraint-propagation family of
// checking algorithms: CSTN under instantaneous or epsilon reaction, CSTNU
// with contingent links, the parameterized extension, and plain STNU.
package cstn

// Version represents the current version of the GoCSTN checker.
const Version = "0.1.0"

// VersionInfo provides detailed version information.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GoVersion: "1.25+",
	}
}

// Package version contains the ipatlas version.
package version

// Version is the ipatlas version.
const Version = "0.3.0"

// Package version provides build and version information for Sentient Signals.
package version

// Version is the current release version of Sentient Signals.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/SentientSignals/internal/version.Version=x.y.z"
var Version = "0.3.0"

// Commit is the source revision, set at build time alongside Version.
var Commit = "dev"

// String renders the version for CLI output.
func String() string {
	return Version + " (" + Commit + ")"
}

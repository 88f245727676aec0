package version

// Version is the application version, overridden at build time via
// -ldflags "-X whodunnit/pkg/version.Version=...".
var Version = "0.3.0-dev"

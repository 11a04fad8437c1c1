package parley

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/parley-dev/parley.Version=...".
var Version = "0.1.0"

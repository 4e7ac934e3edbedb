package canonry

// Version is the library version, overridden at release time via ldflags.
var Version = "0.3.0-dev"

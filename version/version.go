package version

// set by the build via -ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var FullVersion = Version + " (" + Commit + ") " + Date

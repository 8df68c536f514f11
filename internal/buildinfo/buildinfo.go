// Package buildinfo carries version data stamped in with -ldflags, e.g.
//
//	-ldflags "-X sparkgfx/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	Version = "dev"
	Commit  = ""
)

// Short names the build for window titles and logs: the version if one
// was set, else the commit, else "dev".
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		return Version
	case Commit != "":
		return Commit
	}
	return "dev"
}

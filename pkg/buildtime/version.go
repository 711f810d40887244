package buildtime

// set by the linker:
//
//	-ldflags "-X github.com/opst/libris/pkg/buildtime.version=v1.2.3 -X github.com/opst/libris/pkg/buildtime.revision=$(git rev-parse HEAD)"
var (
	version  = "dev"
	revision = "unknown"
)

// version of libris when this binary has been built.
func VERSION() string {
	return version
}

func GIT_REVISION() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}

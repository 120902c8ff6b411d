package cell

// Version information for the reflocal library.
const (
	// Version is the current version of the library.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the library.
type Info struct {
	// Version is the library version string.
	Version string

	// Storage names the goroutine-local storage mechanism in use.
	Storage string
}

// GetInfo returns information about the library build.
//
// Example:
//
//	info := cell.GetInfo()
//	fmt.Printf("reflocal %s (%s)\n", info.Version, info.Storage)
func GetInfo() Info {
	return Info{
		Version: Version,
		Storage: "goroutine-ID slot table",
	}
}

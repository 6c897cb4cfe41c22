package sqlite

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// MinLibraryVersion is the oldest SQLite library this adapter is tested
// against. Partial indexes and busy-timeout URI parameters need 3.8+.
const MinLibraryVersion = "3.8.0"

// Capabilities describes what the linked SQLite library supports.
type Capabilities struct {
	LibraryVersion string
	Supported      bool
	Aggregate      bool
}

// Probe inspects the linked SQLite library and reports its capabilities.
// Hosts call this deliberately, typically once at startup; constructors
// never probe or print on their own.
func Probe() (Capabilities, error) {
	versionStr, _, _ := sqlite3.Version()

	linked, err := goversion.NewVersion(versionStr)
	if err != nil {
		return Capabilities{LibraryVersion: versionStr}, fmt.Errorf("parsing sqlite version %q: %w", versionStr, err)
	}
	minimum := goversion.Must(goversion.NewVersion(MinLibraryVersion))

	return Capabilities{
		LibraryVersion: versionStr,
		Supported:      linked.GreaterThanOrEqual(minimum),
		Aggregate:      true,
	}, nil
}

package localcache

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// TempPrefix marks identities minted locally while the backend was unreachable.
const TempPrefix = "temp_"

// NewTempID returns a time-sortable provisional identity.
func NewTempID() string {
	return TempPrefix + ulid.Make().String()
}

// IsTempID reports whether id was minted by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}

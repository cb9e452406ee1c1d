package engine

import "github.com/google/uuid"

// newID mints an opaque run/response identifier (§6: "all IDs are opaque
// strings, UUID recommended").
func newID() string {
	return uuid.NewString()
}

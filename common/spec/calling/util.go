package calling

import (
	"strings"

	"github.com/google/uuid"
)

// NewOperationID returns a fresh operation id for an outbound action.
func NewOperationID() string {
	return uuid.NewString()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

const userIDPrefix = "8:"

// isUserID reports whether id is a user id with a non-empty suffix.
func isUserID(id string) bool {
	return strings.HasPrefix(id, userIDPrefix) && len(id) > len(userIDPrefix)
}

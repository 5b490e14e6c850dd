package messaging

import (
	"regexp"
	"strings"
)

// Identifier prefixes used by the platform.
const (
	UserIDPrefix = "8:"
	BotIDPrefix  = "28:"
)

var groupIDPattern = regexp.MustCompile(`^19:[^@\s]+@thread\.skype$`)

// IsGroupID reports whether id names a group conversation.
func IsGroupID(id string) bool {
	return groupIDPattern.MatchString(id)
}

// IsUserID reports whether id names a user.
func IsUserID(id string) bool {
	return strings.HasPrefix(id, UserIDPrefix) && len(id) > len(UserIDPrefix)
}

// IsBotID reports whether id names a bot.
func IsBotID(id string) bool {
	return strings.HasPrefix(id, BotIDPrefix) && len(id) > len(BotIDPrefix)
}

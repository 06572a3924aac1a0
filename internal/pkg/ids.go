package pkg

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateNewSessionID - generates a new unique sessionID.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// GenerateGameID - generates a short game identifier players can share.
func GenerateGameID() string {
	id := uuid.New()

	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

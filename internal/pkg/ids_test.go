package pkg

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

func TestGenerateNewSessionID(t *testing.T) {
	// When: two session ids are generated
	first := GenerateNewSessionID()
	second := GenerateNewSessionID()

	// Then: both are uuids and they differ
	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestGenerateGameID(t *testing.T) {
	id := GenerateGameID()

	assert.Len(t, id, 12)
	assert.NoError(t, gungi.ValidateGameID(id))
	assert.NotEqual(t, id, GenerateGameID())
}

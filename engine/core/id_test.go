package core_test

import (
	"testing"

	"github.com/beacon-agent/beacon/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Run("Should generate a new unique ID", func(t *testing.T) {
		id1, err := core.NewID()
		require.NoError(t, err)
		id2, err := core.NewID()
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)
		assert.False(t, id1.IsZero())
	})
}

func TestParseID(t *testing.T) {
	t.Run("Should round-trip a generated ID", func(t *testing.T) {
		id := core.MustNewID()
		parsed, err := core.ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("Should reject a malformed ID", func(t *testing.T) {
		_, err := core.ParseID("not-a-valid-ksuid")
		assert.Error(t, err)
	})
}

func TestID_IsZero(t *testing.T) {
	t.Run("Should return true for zero-value ID", func(t *testing.T) {
		var zero core.ID
		assert.True(t, zero.IsZero())
	})
	t.Run("Should return false for non-zero ID", func(t *testing.T) {
		assert.False(t, core.MustNewID().IsZero())
	})
}

func TestError_Error(t *testing.T) {
	t.Run("Should include code, message and field", func(t *testing.T) {
		err := core.Error{
			Code:    core.ErrInvalidModel,
			Message: "model is required",
			Field:   "model",
		}
		assert.Equal(t, "invalid_model: model is required (field: model)", err.Error())
	})

	t.Run("Should omit field suffix when field is empty", func(t *testing.T) {
		err := core.Error{Code: core.ErrGeneral, Message: "boom"}
		assert.Equal(t, "general: boom", err.Error())
	})
}

package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Run("trusted signal resolves to internal", func(t *testing.T) {
		assert.Equal(t, VisibilityInternal, Classify(true))
	})

	t.Run("untrusted signal resolves to public", func(t *testing.T) {
		assert.Equal(t, VisibilityPublic, Classify(false))
	})
}

func TestVisibility_IsInternal(t *testing.T) {
	assert.True(t, VisibilityInternal.IsInternal())
	assert.False(t, VisibilityPublic.IsInternal())
}

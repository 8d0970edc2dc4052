package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("Default_IsRegistered", func(t *testing.T) {
		p := Default()
		require.NotNil(t, p)
		assert.Equal(t, KeyDefault, p.Key)
		assert.NotEmpty(t, p.Greeting)
	})

	t.Run("Get_UnknownKey", func(t *testing.T) {
		_, ok := Get("oracle")
		assert.False(t, ok)
	})

	t.Run("ByMention_CoversEveryPersona", func(t *testing.T) {
		for _, p := range List() {
			found, ok := ByMention(p.Mention)
			require.True(t, ok, "mention %q should resolve", p.Mention)
			assert.Equal(t, p.Key, found.Key)
		}
	})

	t.Run("List_StableOrder", func(t *testing.T) {
		first := List()
		second := List()
		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Key, second[i].Key)
		}
	})

	t.Run("EveryPersona_HasGreetingAndPrompt", func(t *testing.T) {
		for _, p := range List() {
			assert.NotEmpty(t, p.Greeting, p.Key)
			assert.NotEmpty(t, p.SystemPrompt, p.Key)
			assert.NotEmpty(t, p.Model, p.Key)
		}
	})
}

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plumechat/plume/store"
)

func TestAnimatedUIDs(t *testing.T) {
	greeting := store.NewMessage(store.MessageRoleAssistant, "hello")
	greeting.HasAnimated = true
	question := store.NewMessage(store.MessageRoleUser, "question")
	reply := store.NewMessage(store.MessageRoleAssistant, "reply")

	t.Run("CollectsOnlyFlaggedMessages", func(t *testing.T) {
		uids := animatedUIDs([]*store.Message{greeting, question, reply})
		assert.Equal(t, []string{greeting.UID}, uids)
	})

	t.Run("FlippedMessageJoinsNextCollection", func(t *testing.T) {
		reply.HasAnimated = true
		uids := animatedUIDs([]*store.Message{greeting, question, reply})
		assert.Equal(t, []string{greeting.UID, reply.UID}, uids)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, animatedUIDs(nil))
		assert.Empty(t, animatedUIDs([]*store.Message{question}))
	})
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholder(1))
	assert.Equal(t, "$1, $2, $3", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

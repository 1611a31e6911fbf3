package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
)

func TestAllowed(t *testing.T) {
	owner := &tele.User{ID: 7}
	stranger := &tele.User{ID: 8}

	assert.True(t, allowed(0, stranger))
	assert.True(t, allowed(0, nil))
	assert.True(t, allowed(7, owner))
	assert.False(t, allowed(7, stranger))
	assert.False(t, allowed(7, nil))
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, "telegram-123456789", conversationKey(123456789))
	assert.Equal(t, "telegram--100200300", conversationKey(-100200300))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "unknown", displayName(nil))
	assert.Equal(t, "ann", displayName(&tele.User{ID: 1, Username: "ann", FirstName: "Ann"}))
	assert.Equal(t, "Ann", displayName(&tele.User{ID: 1, FirstName: "Ann"}))
	assert.Equal(t, "1", displayName(&tele.User{ID: 1}))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdate_Message(t *testing.T) {
	body := []byte(`{
		"update_id": 10000,
		"message": {
			"message_id": 1365,
			"from": {"id": 1111111, "is_bot": false, "username": "alice"},
			"chat": {"id": -100222, "type": "supergroup"},
			"message_thread_id": 7,
			"is_topic_message": true,
			"date": 1441645532,
			"text": "/start@bhola_bot  now",
			"entities": [{"type": "bot_command", "offset": 0, "length": 16}]
		}
	}`)

	u, err := ParseUpdate(body)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), u.UpdateID)
	require.NotNil(t, u.Message)
	assert.Equal(t, int64(1365), u.Message.MessageID)
	assert.Equal(t, int64(-100222), u.Message.Chat.ID)
	assert.Equal(t, "supergroup", u.Message.Chat.Type)
	assert.Equal(t, int64(7), u.Message.MessageThreadID)
	assert.True(t, u.Message.IsTopicMessage)
	require.NotNil(t, u.Message.From)
	assert.Equal(t, "alice", u.Message.From.Username)

	name, mention, args, ok := u.Message.Command()
	require.True(t, ok)
	assert.Equal(t, "start", name)
	assert.Equal(t, "bhola_bot", mention)
	assert.Equal(t, "now", args)
}

func TestParseUpdate_OtherKinds(t *testing.T) {
	u, err := ParseUpdate([]byte(`{"update_id": 5, "edited_message": {"message_id": 1, "chat": {"id": 1, "type": "private"}}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.UpdateID)
	assert.Nil(t, u.Message)
}

func TestParseUpdate_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"empty":             ``,
		"not json":          `update`,
		"array":             `[1,2]`,
		"no update_id":      `{"message": {}}`,
		"string update_id":  `{"update_id": "1"}`,
		"message sans chat": `{"update_id": 1, "message": {"message_id": 1, "text": "hi"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUpdate([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidUpdate)
		})
	}
}

func TestMessage_Command(t *testing.T) {
	plain := &Message{Text: "hello"}
	assert.False(t, plain.IsCommand())

	_, _, _, ok := plain.Command()
	assert.False(t, ok)

	// A command entity that is not at the start does not make a command.
	inner := &Message{
		Text:     "say /start",
		Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 4, Length: 6}},
	}
	assert.False(t, inner.IsCommand())

	// Offsets count UTF-16 code units, so the emoji takes two.
	emoji := &Message{
		Text:     "/start 😀 hi",
		Entities: []MessageEntity{{Type: EntityBotCommand, Offset: 0, Length: 6}},
	}
	name, mention, args, ok := emoji.Command()
	require.True(t, ok)
	assert.Equal(t, "start", name)
	assert.Empty(t, mention)
	assert.Equal(t, "😀 hi", args)

	var nilMsg *Message
	assert.False(t, nilMsg.IsCommand())
}

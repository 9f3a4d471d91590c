package model

import (
	"errors"
	"strings"
	"unicode/utf16"

	"github.com/tidwall/gjson"
)

var ErrInvalidUpdate = errors.New("invalid update payload")

const (
	EntityBotCommand = "bot_command"

	ChatPrivate = "private"
)

// Update is the subset of a Telegram Update this service reacts to. Update
// kinds other than "message" parse fine and leave Message nil.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID       int64           `json:"message_id"`
	MessageThreadID int64           `json:"message_thread_id,omitempty"`
	IsTopicMessage  bool            `json:"is_topic_message,omitempty"`
	From            *User           `json:"from,omitempty"`
	Chat            Chat            `json:"chat"`
	Text            string          `json:"text,omitempty"`
	Entities        []MessageEntity `json:"entities,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username,omitempty"`
}

// MessageEntity offsets and lengths count UTF-16 code units.
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// ParseUpdate reads an update from a webhook body. The body must be a JSON
// object carrying a numeric update_id.
func ParseUpdate(body []byte) (*Update, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidUpdate
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrInvalidUpdate
	}

	id := root.Get("update_id")
	if id.Type != gjson.Number {
		return nil, ErrInvalidUpdate
	}

	u := &Update{UpdateID: id.Int()}

	if m := root.Get("message"); m.IsObject() {
		msg, err := parseMessage(m)
		if err != nil {
			return nil, err
		}

		u.Message = msg
	}

	return u, nil
}

func parseMessage(m gjson.Result) (*Message, error) {
	chat := m.Get("chat")
	if !chat.IsObject() || chat.Get("id").Type != gjson.Number {
		return nil, ErrInvalidUpdate
	}

	msg := &Message{
		MessageID:       m.Get("message_id").Int(),
		MessageThreadID: m.Get("message_thread_id").Int(),
		IsTopicMessage:  m.Get("is_topic_message").Bool(),
		Chat: Chat{
			ID:   chat.Get("id").Int(),
			Type: chat.Get("type").String(),
		},
		Text: m.Get("text").String(),
	}

	if from := m.Get("from"); from.IsObject() {
		msg.From = &User{
			ID:       from.Get("id").Int(),
			IsBot:    from.Get("is_bot").Bool(),
			Username: from.Get("username").String(),
		}
	}

	m.Get("entities").ForEach(func(_, e gjson.Result) bool {
		msg.Entities = append(msg.Entities, MessageEntity{
			Type:   e.Get("type").String(),
			Offset: int(e.Get("offset").Int()),
			Length: int(e.Get("length").Int()),
		})

		return true
	})

	return msg, nil
}

// IsCommand reports whether the message starts with a bot command entity.
func (m *Message) IsCommand() bool {
	if m == nil || len(m.Entities) == 0 {
		return false
	}

	first := m.Entities[0]

	return first.Type == EntityBotCommand && first.Offset == 0
}

// Command splits a command message such as "/start@bhola_bot foo" into its
// name ("start"), mention ("bhola_bot") and args ("foo").
func (m *Message) Command() (name, mention, args string, ok bool) {
	if !m.IsCommand() {
		return "", "", "", false
	}

	units := utf16.Encode([]rune(m.Text))
	length := m.Entities[0].Length
	if length <= 1 || length > len(units) {
		return "", "", "", false
	}

	cmd := string(utf16.Decode(units[1:length]))
	rest := string(utf16.Decode(units[length:]))

	name, mention, _ = strings.Cut(cmd, "@")

	return name, mention, strings.TrimLeft(rest, " "), true
}

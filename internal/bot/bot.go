package bot

import (
	"context"

	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
	"github.com/SergeyParamoshkin/bhola-bot/internal/model"
	"github.com/SergeyParamoshkin/bhola-bot/internal/processor"
	"github.com/SergeyParamoshkin/bhola-bot/internal/telegram"
)

const StartText = "Hello! Send me any text and I'll add 'bhola' before it."

type Sender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
}

// Bot holds the conversation handlers.
type Bot struct {
	sender  Sender
	metrics *metrics.Metrics
}

func New(sender Sender, m *metrics.Metrics) *Bot {
	return &Bot{sender: sender, metrics: m}
}

func (b *Bot) Register(d *telegram.Dispatcher) {
	d.Command("start", b.Start)
	d.Text(b.Echo)
}

func (b *Bot) Start(ctx context.Context, u *model.Update) error {
	return b.reply(ctx, u.Message, StartText)
}

func (b *Bot) Echo(ctx context.Context, u *model.Update) error {
	return b.reply(ctx, u.Message, processor.Process(u.Message.Text))
}

// reply answers in the message's chat. Outside private chats the reply
// quotes the source message.
func (b *Bot) reply(ctx context.Context, msg *model.Message, text string) error {
	req := telegram.SendMessageRequest{
		ChatID: msg.Chat.ID,
		Text:   text,
	}

	if msg.IsTopicMessage {
		req.MessageThreadID = msg.MessageThreadID
	}

	if msg.Chat.Type != model.ChatPrivate {
		req.ReplyParameters = &telegram.ReplyParameters{MessageID: msg.MessageID}
	}

	err := b.sender.SendMessage(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}

	b.metrics.RepliesSent.Add(ctx, 1, metrics.StatusKey.String(status))

	return err
}

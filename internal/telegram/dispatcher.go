package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/bhola-bot/internal/metrics"
	"github.com/SergeyParamoshkin/bhola-bot/internal/model"
)

var ErrNotInitialized = errors.New("telegram: dispatcher not initialized")

type HandlerFunc func(ctx context.Context, u *model.Update) error

// Handler reacts to the updates it matches.
type Handler interface {
	Name() string
	Match(u *model.Update) bool
	Handle(ctx context.Context, u *model.Update) error
}

type commandHandler struct {
	command string
	me      func() *User
	fn      HandlerFunc
}

func (h *commandHandler) Name() string { return "command:" + h.command }

func (h *commandHandler) Match(u *model.Update) bool {
	name, mention, _, ok := u.Message.Command()
	if !ok || !strings.EqualFold(name, h.command) {
		return false
	}

	if mention == "" {
		return true
	}

	me := h.me()

	return me != nil && strings.EqualFold(mention, me.Username)
}

func (h *commandHandler) Handle(ctx context.Context, u *model.Update) error {
	return h.fn(ctx, u)
}

type textHandler struct {
	fn HandlerFunc
}

func (h *textHandler) Name() string { return "text" }

func (h *textHandler) Match(u *model.Update) bool {
	return u.Message != nil && u.Message.Text != "" && !u.Message.IsCommand()
}

func (h *textHandler) Handle(ctx context.Context, u *model.Update) error {
	return h.fn(ctx, u)
}

// Dispatcher routes updates to the first matching handler.
type Dispatcher struct {
	client  *Client
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	me       *User
	handlers []Handler
}

func NewDispatcher(client *Client, logger *zap.SugaredLogger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// Initialize fetches the bot identity. It must succeed before Process.
func (d *Dispatcher) Initialize(ctx context.Context) error {
	me, err := d.client.GetMe(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.me = me
	d.mu.Unlock()

	d.logger.Infow("bot initialized", "id", me.ID, "username", me.Username)

	return nil
}

func (d *Dispatcher) Me() *User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.me
}

func (d *Dispatcher) Add(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = append(d.handlers, h)
}

// Command registers fn for "/command" messages, optionally addressed to this
// bot as "/command@username".
func (d *Dispatcher) Command(command string, fn HandlerFunc) {
	d.Add(&commandHandler{command: command, me: d.Me, fn: fn})
}

// Text registers fn for text messages that are not commands.
func (d *Dispatcher) Text(fn HandlerFunc) {
	d.Add(&textHandler{fn: fn})
}

// Process runs the first handler matching u. Handler failures are logged and
// counted but not returned, Telegram would only redeliver the update.
func (d *Dispatcher) Process(ctx context.Context, u *model.Update) error {
	d.mu.RLock()
	initialized := d.me != nil
	handlers := d.handlers
	d.mu.RUnlock()

	if !initialized {
		return ErrNotInitialized
	}

	start := time.Now()
	defer func() {
		d.metrics.UpdateLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	}()

	h, ok := lo.Find(handlers, func(h Handler) bool {
		return h.Match(u)
	})
	if !ok {
		d.logger.Debugw("no handler for update", "update_id", u.UpdateID)

		return nil
	}

	if err := h.Handle(ctx, u); err != nil {
		d.metrics.HandlerErrors.Add(ctx, 1, metrics.HandlerKey.String(h.Name()))
		d.logger.Errorw("update handler failed",
			"update_id", u.UpdateID,
			"handler", h.Name(),
			"error", err,
		)
	}

	return nil
}

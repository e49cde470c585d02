// Package telegram is the inbound command surface: it translates Bot API
// updates (messages, button presses) into queue engine calls and renders
// the replies. It holds no queue state of its own.
package telegram

import (
	"context"
	"log/slog"
	"time"

	"darkroom/internal/config"
	"darkroom/internal/journal"
	"darkroom/internal/logging"
	"darkroom/internal/notifications"
	"darkroom/internal/queue"
)

// Bot long-polls for updates and dispatches them. All queue access goes
// through the engine; audit and push notifications are fire-and-forget
// after the engine call returns.
type Bot struct {
	cfg      *config.Config
	client   *Client
	engine   *queue.Engine
	journal  *journal.Journal
	notifier notifications.Service
	logger   *slog.Logger
}

// NewBot wires the inbound surface. The journal may be nil; the notifier
// must not be (use the noop service).
func NewBot(cfg *config.Config, client *Client, engine *queue.Engine, jrnl *journal.Journal, notifier notifications.Service, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bot{
		cfg:      cfg,
		client:   client,
		engine:   engine,
		journal:  jrnl,
		notifier: notifier,
		logger:   logger.With(logging.String("component", "telegram")),
	}
}

// Run long-polls until ctx is cancelled. Poll errors are logged and
// retried after a short pause rather than stopping intake.
func (b *Bot) Run(ctx context.Context) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := b.client.GetUpdates(ctx, offset, b.cfg.Telegram.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn("poll updates", logging.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, *update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, *update.Message)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.cfg.Telegram.AdminID
}

// menu builds the per-user inline keyboard: Check Status plus either
// Submit or Cancel depending on queue membership.
func (b *Bot) menu(userID int64) *InlineKeyboardMarkup {
	rows := [][]InlineKeyboardButton{
		{{Text: "Check Status", CallbackData: "check_status"}},
	}
	if _, ok := b.engine.StatusOf(userID); ok {
		rows = append(rows, []InlineKeyboardButton{{Text: "Cancel Request", CallbackData: "cancel_request"}})
	} else {
		rows = append(rows, []InlineKeyboardButton{{Text: "Submit Request", CallbackData: "submit_request"}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// sendTemp sends a message that deletes itself after the configured TTL.
// Used for group moderation notices so the channel stays clean.
func (b *Bot) sendTemp(ctx context.Context, chatID int64, text string) {
	msg, err := b.client.SendMessage(ctx, chatID, text, nil)
	if err != nil {
		b.logger.Warn("send temp message", logging.Error(err))
		return
	}
	ttl := time.Duration(b.cfg.Telegram.TempMessageTTL) * time.Second
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(ttl):
		}
		deleteCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.client.DeleteMessage(deleteCtx, chatID, msg.MessageID); err != nil {
			b.logger.Debug("delete temp message", logging.Error(err))
		}
	}()
}

// audit appends to the journal off the handler path.
func (b *Bot) audit(action journal.Action, requesterID int64, displayName, detail string) {
	if b.journal == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.journal.Record(ctx, action, requesterID, displayName, detail); err != nil {
			b.logger.Warn("journal append", logging.Error(err))
		}
	}()
}

func (b *Bot) notify(send func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			b.logger.Warn("operator notification", logging.Error(err))
		}
	}()
}

// warnDurability tells the operator a mutation was applied in memory but
// not persisted.
func (b *Bot) warnDurability(op string, err error) {
	b.logger.Error("durability degraded", logging.String("op", op), logging.Error(err))
	b.notify(func(ctx context.Context) error {
		return b.notifier.NotifyError(ctx, err, op)
	})
}

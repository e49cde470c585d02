package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"darkroom/internal/journal"
	"darkroom/internal/logging"
	"darkroom/internal/queue"
)

const (
	replyWelcome = "Welcome! You can submit an image editing request.\n\n" +
		"Just send a photo with a caption describing the edit."
	replyGroupWelcome = "Welcome %s!\n\n" +
		"This group is for image editing requests only.\n" +
		"To request an edit, DM the bot."
	replyGroupModeration = "Only admins can post here. Please DM the bot for any requests."
	replyQueueFull       = "Queue full. Try again tomorrow."
	replyDuplicate       = "You already submitted a request."
	replyPhotoRequired   = "Only image requests allowed. Send a photo with a caption."
	replyNoCaption       = "Got the image. Next time add a caption too."
	replyNotAuthorized   = "Not authorized."
	replyNoRequest       = "No request in queue."
	replyPending         = "Still pending."
	replyCompleted       = "Completed!"
	replyCancelled       = "Cancelled."
	replyRequestDone     = "Your request is completed."
	replyQueueReset      = "Queue reset."
	replySubmitHint      = "Send a photo with a caption to get started."
)

func (b *Bot) handleMessage(ctx context.Context, msg Message) {
	if len(msg.NewChatMembers) > 0 {
		b.handleNewMembers(ctx, msg)
		return
	}
	if msg.Chat.Type != "private" {
		b.moderateGroupMessage(ctx, msg)
		return
	}
	if msg.From == nil {
		return
	}

	switch command(msg.Text) {
	case "/start":
		b.reply(ctx, msg.Chat.ID, replyWelcome, b.menu(msg.From.ID))
	case "/status":
		b.reply(ctx, msg.Chat.ID, b.statusText(msg.From.ID), b.menu(msg.From.ID))
	case "/queue":
		b.handleShowQueue(ctx, msg)
	case "/reset":
		b.handleManualReset(ctx, msg)
	default:
		b.handleSubmission(ctx, msg)
	}
}

func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if idx := strings.IndexAny(text, " @"); idx > 0 {
		return text[:idx]
	}
	return text
}

// handleSubmission turns a private photo message into an engine submit.
func (b *Bot) handleSubmission(ctx context.Context, msg Message) {
	user := *msg.From
	if len(msg.Photo) == 0 {
		b.reply(ctx, msg.Chat.ID, replyPhotoRequired, b.menu(user.ID))
		return
	}
	if msg.Caption == "" {
		b.reply(ctx, msg.Chat.ID, replyNoCaption, nil)
	}

	// Telegram orders photo sizes small to large; take the original.
	payloadRef := msg.Photo[len(msg.Photo)-1].FileID

	position, err := b.engine.Submit(queue.Submission{
		RequesterID: user.ID,
		DisplayName: user.DisplayName(),
		Kind:        queue.KindPhoto,
		PayloadRef:  payloadRef,
		Caption:     msg.Caption,
	})
	switch {
	case errors.Is(err, queue.ErrQueueFull):
		b.reply(ctx, msg.Chat.ID, replyQueueFull, b.menu(user.ID))
		return
	case errors.Is(err, queue.ErrDuplicateRequester):
		b.reply(ctx, msg.Chat.ID, replyDuplicate, b.menu(user.ID))
		return
	case errors.Is(err, queue.ErrSaveFailed):
		b.warnDurability("submit", err)
	case err != nil:
		b.logger.Error("submit failed", logging.Error(err))
		b.reply(ctx, msg.Chat.ID, "Something went wrong, try again.", b.menu(user.ID))
		return
	}

	confirmation := fmt.Sprintf(
		"Request received. You're #%d in the queue.\n\n"+
			"Turnaround: %d hours\n"+
			"DM the admin for private edits",
		position, b.cfg.Queue.SLAHours,
	)
	b.reply(ctx, msg.Chat.ID, confirmation, b.menu(user.ID))

	b.audit(journal.ActionSubmit, user.ID, user.DisplayName(), msg.Caption)
	b.notify(func(ctx context.Context) error {
		return b.notifier.NotifyRequestReceived(ctx, user.DisplayName(), position, b.engine.Len())
	})
	b.logger.Info("request admitted",
		logging.Int64("requester", user.ID),
		logging.Int("position", position))
}

func (b *Bot) statusText(userID int64) string {
	status, ok := b.engine.StatusOf(userID)
	switch {
	case !ok:
		return replyNoRequest
	case status == queue.StatusPending:
		return replyPending
	default:
		return replyCompleted
	}
}

// handleShowQueue sends the admin one message per record with a Mark as
// Done button.
func (b *Bot) handleShowQueue(ctx context.Context, msg Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(ctx, msg.Chat.ID, replyNotAuthorized, nil)
		return
	}
	records := b.engine.List()
	if len(records) == 0 {
		b.reply(ctx, msg.Chat.ID, "Queue is empty.", nil)
		return
	}
	for i, rec := range records {
		markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "Mark as Done", CallbackData: fmt.Sprintf("admin_done:%d", rec.RequesterID)}},
		}}
		line := fmt.Sprintf("%d. %s - %s - %s", i+1, rec.DisplayName, rec.Kind, rec.Status)
		b.reply(ctx, msg.Chat.ID, line, markup)
	}
}

func (b *Bot) handleManualReset(ctx context.Context, msg Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(ctx, msg.Chat.ID, replyNotAuthorized, nil)
		return
	}
	removed := b.engine.Len()
	if err := b.engine.ResetAll(); err != nil {
		b.warnDurability("reset", err)
	}
	b.reply(ctx, msg.Chat.ID, replyQueueReset, nil)

	b.audit(journal.ActionReset, 0, "", fmt.Sprintf("manual reset removed %d", removed))
	b.notify(func(ctx context.Context) error {
		return b.notifier.NotifyQueueReset(ctx, removed)
	})
}

func (b *Bot) handleCallback(ctx context.Context, cb CallbackQuery) {
	if err := b.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		b.logger.Debug("answer callback", logging.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	switch {
	case cb.Data == "check_status":
		b.edit(ctx, chatID, cb.Message.MessageID, b.statusText(userID), b.menu(userID))
	case cb.Data == "submit_request":
		b.edit(ctx, chatID, cb.Message.MessageID, replySubmitHint, b.menu(userID))
	case cb.Data == "cancel_request":
		b.handleCancel(ctx, cb)
	case strings.HasPrefix(cb.Data, "admin_done:"):
		b.handleAdminDone(ctx, cb)
	}
}

func (b *Bot) handleCancel(ctx context.Context, cb CallbackQuery) {
	chatID := cb.Message.Chat.ID
	err := b.engine.Cancel(cb.From.ID)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		b.edit(ctx, chatID, cb.Message.MessageID, "No request found.", b.menu(cb.From.ID))
		return
	case errors.Is(err, queue.ErrSaveFailed):
		b.warnDurability("cancel", err)
	case err != nil:
		b.logger.Error("cancel failed", logging.Error(err))
		return
	}
	b.edit(ctx, chatID, cb.Message.MessageID, replyCancelled, b.menu(cb.From.ID))

	b.audit(journal.ActionCancel, cb.From.ID, cb.From.DisplayName(), "")
	b.notify(func(ctx context.Context) error {
		return b.notifier.NotifyRequestCancelled(ctx, cb.From.DisplayName())
	})
}

func (b *Bot) handleAdminDone(ctx context.Context, cb CallbackQuery) {
	chatID := cb.Message.Chat.ID
	if !b.isAdmin(cb.From.ID) {
		b.edit(ctx, chatID, cb.Message.MessageID, replyNotAuthorized, nil)
		return
	}

	requesterID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "admin_done:"), 10, 64)
	if err != nil {
		b.edit(ctx, chatID, cb.Message.MessageID, "Bad request id.", nil)
		return
	}

	name, err := b.engine.MarkDone(requesterID)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		b.edit(ctx, chatID, cb.Message.MessageID, "Request not found.", nil)
		return
	case errors.Is(err, queue.ErrSaveFailed):
		b.warnDurability("mark done", err)
	case err != nil:
		b.logger.Error("mark done failed", logging.Error(err))
		return
	}

	// Requesters submit from their private chat, so their chat id is
	// their user id.
	if _, sendErr := b.client.SendMessage(ctx, requesterID, replyRequestDone, nil); sendErr != nil {
		b.logger.Warn("notify requester", logging.Error(sendErr), logging.Int64("requester", requesterID))
	}
	b.edit(ctx, chatID, cb.Message.MessageID, fmt.Sprintf("%s's request marked done.", name), nil)

	b.audit(journal.ActionDone, requesterID, name, "")
	b.notify(func(ctx context.Context) error {
		return b.notifier.NotifyRequestCompleted(ctx, name)
	})
}

func (b *Bot) handleNewMembers(ctx context.Context, msg Message) {
	if !b.cfg.Telegram.WelcomeNewMembers {
		return
	}
	for _, member := range msg.NewChatMembers {
		name := member.DisplayName()
		if name == "" {
			name = "there"
		}
		b.sendTemp(ctx, msg.Chat.ID, fmt.Sprintf(replyGroupWelcome, name))
	}
}

// moderateGroupMessage deletes non-admin chatter in moderated groups and
// leaves a temporary pointer to the DM flow.
func (b *Bot) moderateGroupMessage(ctx context.Context, msg Message) {
	if !b.cfg.Telegram.ModerateGroups || msg.From == nil {
		return
	}
	if msg.ReplyTo != nil || msg.LeftChatMember != nil {
		return
	}

	member, err := b.client.GetChatMember(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		b.logger.Debug("get chat member", logging.Error(err))
		return
	}
	if member.Status == "administrator" || member.Status == "creator" {
		return
	}

	if err := b.client.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		b.logger.Debug("moderation delete", logging.Error(err))
	}
	b.sendTemp(ctx, msg.Chat.ID, replyGroupModeration)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) {
	if _, err := b.client.SendMessage(ctx, chatID, text, markup); err != nil {
		b.logger.Warn("send reply", logging.Error(err))
	}
}

func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) {
	if err := b.client.EditMessageText(ctx, chatID, messageID, text, markup); err != nil {
		b.logger.Warn("edit message", logging.Error(err))
	}
}

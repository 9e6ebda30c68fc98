// Package handlers implements the HTTP endpoints of the reminder service.
//
// The only inbound surface is the LINE webhook. Handlers are transport-thin:
// they verify the platform signature, decode the webhook envelope, and
// delegate each event to the command interpreter and the reminder service,
// translating outcomes into exactly one reply per user-issued command.
// Background-path failures (timer fires) never reach this layer.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-reminder-backend/internal/command"
	"github.com/tbourn/go-reminder-backend/internal/http/middleware"
	"github.com/tbourn/go-reminder-backend/internal/line"
	"github.com/tbourn/go-reminder-backend/internal/services"
)

// signatureHeader carries the webhook HMAC from the LINE platform.
const signatureHeader = "X-Line-Signature"

// usageText is replied when the reminder keyword is present but the grammar
// did not match.
const usageText = "指令格式：\n提醒我 日期 時間 事項\n例如：提醒我 2025/07/15 17:20 買牛奶\n日期也可以用「明天」或「後天」。"

// Replier answers inbound events through their one-shot reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken string, msgs ...line.Message) error
}

// Handlers bundles the webhook dependencies.
type Handlers struct {
	// ChannelSecret verifies webhook signatures.
	ChannelSecret string
	// Interp matches inbound text against the command grammar.
	Interp *command.Interpreter
	// Svc owns the reminder lifecycle.
	Svc *services.ReminderService
	// Replies answers events; in production this is the line.Client.
	Replies Replier
}

// New constructs the handler set.
func New(channelSecret string, interp *command.Interpreter, svc *services.ReminderService, replies Replier) *Handlers {
	return &Handlers{
		ChannelSecret: channelSecret,
		Interp:        interp,
		Svc:           svc,
		Replies:       replies,
	}
}

// Webhook handles POST /callback: signature check, envelope decode, and
// per-event dispatch. The platform only needs a 200; replies travel through
// the Messaging API, not the HTTP response.
func (h *Handlers) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	if !line.ValidateSignature(h.ChannelSecret, c.GetHeader(signatureHeader), body) {
		LoggerFor(c).Warn().Msg("webhook signature mismatch")
		c.String(http.StatusBadRequest, "invalid signature")
		return
	}

	var payload line.WebhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		c.String(http.StatusBadRequest, "malformed payload")
		return
	}

	ctx := c.Request.Context()
	for _, ev := range payload.Events {
		switch ev.Type {
		case "message":
			h.handleMessage(ctx, c, ev)
		case "postback":
			h.handlePostback(ctx, c, ev)
		}
	}
	c.String(http.StatusOK, "OK")
}

// handleMessage interprets a text message and replies according to the
// outcome. Every recognized command produces exactly one reply; unrelated
// chatter is ignored silently.
func (h *Handlers) handleMessage(ctx context.Context, c *gin.Context, ev line.Event) {
	if ev.Message == nil || ev.Message.Type != "text" {
		return
	}

	res := h.Interp.Interpret(ctx, ev.Message.Text, ev.Source.UserID, ev.Message.FirstMentionedUser())
	switch res.Kind {
	case command.KindIgnored:
		return

	case command.KindHelp:
		h.reply(c, ev.ReplyToken, line.TextMessage(usageText))

	case command.KindRejected:
		h.reply(c, ev.ReplyToken, line.TextMessage(rejectionText(res.Reason)))

	case command.KindCommand:
		event, err := h.Svc.CreateFromCommand(ctx, res.Command)
		if err != nil {
			LoggerFor(c).Error().Err(err).Msg("create event failed")
			h.reply(c, ev.ReplyToken, line.TextMessage("處理您的請求時發生錯誤，請稍後再試。"))
			return
		}

		when := h.renderInstant(event.EventAt)
		text := fmt.Sprintf("已記錄：%s %s %s\n\n希望什麼時候提醒您呢？",
			event.TargetDisplayName, when, event.Content)
		h.reply(c, ev.ReplyToken, line.TextMessage(text).WithQuickReplies(offsetButtons(event.ID)...))
	}
}

// handlePostback parses a button payload and applies it. Malformed or
// replayed payloads referencing missing events no-op with a log entry.
func (h *Handlers) handlePostback(ctx context.Context, c *gin.Context, ev line.Event) {
	if ev.Postback == nil {
		return
	}
	pb, err := command.ParsePostback(ev.Postback.Data)
	if err != nil {
		LoggerFor(c).Warn().Str("data", ev.Postback.Data).Msg("malformed postback ignored")
		return
	}

	switch p := pb.(type) {
	case command.SetReminder:
		h.applySetReminder(ctx, c, ev.ReplyToken, p)

	case command.ConfirmReminder:
		h.reply(c, ev.ReplyToken, line.TextMessage("好的，已確認這個提醒。"))

	case command.SnoozeReminder:
		at, err := h.Svc.Snooze(ctx, p.EventID, p.Minutes)
		if err != nil {
			if err == services.ErrEventNotFound {
				LoggerFor(c).Warn().Str("event_id", p.EventID).Msg("snooze for missing event ignored")
				return
			}
			LoggerFor(c).Error().Err(err).Str("event_id", p.EventID).Msg("snooze failed")
			h.reply(c, ev.ReplyToken, line.TextMessage("設定提醒時發生錯誤，請稍後再試。"))
			return
		}
		h.reply(c, ev.ReplyToken, line.TextMessage(
			fmt.Sprintf("好的，將於 %s 再提醒您。", h.renderInstant(at))))
	}
}

// applySetReminder arms or disarms the reminder chosen via quick reply and
// replies with the final result.
func (h *Handlers) applySetReminder(ctx context.Context, c *gin.Context, replyToken string, p command.SetReminder) {
	out, err := h.Svc.Arm(ctx, p.EventID, p.Kind, p.Value)
	if err != nil {
		switch err {
		case services.ErrEventNotFound:
			// Replayed or stale button press.
			LoggerFor(c).Warn().Str("event_id", p.EventID).Msg("set-reminder for missing event ignored")
		case services.ErrReminderInPast:
			h.reply(c, replyToken, line.TextMessage("這個提醒時間已經過了，請選擇其他選項或重新輸入指令。"))
		case services.ErrInvalidOffset:
			LoggerFor(c).Warn().Str("event_id", p.EventID).Msg("invalid offset in postback ignored")
		default:
			LoggerFor(c).Error().Err(err).Str("event_id", p.EventID).Msg("arm failed")
			h.reply(c, replyToken, line.TextMessage("設定提醒時發生錯誤，請稍後再試。"))
		}
		return
	}

	if out.Disarmed {
		h.reply(c, replyToken, line.TextMessage("好的，這個事件將不設定提醒。"))
		return
	}
	h.reply(c, replyToken, line.TextMessage(
		fmt.Sprintf("設定完成！將於 %s 提醒您。", h.renderInstant(out.ReminderAt))))
}

// offsetButtons renders the canned offset choices as postback quick replies.
func offsetButtons(eventID string) []line.QuickReplyItem {
	choices := services.OfferedOffsets()
	items := make([]line.QuickReplyItem, 0, len(choices))
	for _, choice := range choices {
		data := command.SetReminder{EventID: eventID, Kind: choice.Kind, Value: choice.Value}.Data()
		items = append(items, line.PostbackItem(choice.Label, data))
	}
	return items
}

// rejectionText maps reject reasons to user-facing replies.
func rejectionText(reason command.RejectReason) string {
	switch reason {
	case command.ReasonTimeInPast:
		return "這個時間已經過了，請輸入未來的時間。"
	default:
		return "看不懂這個日期時間，請用例如 2025/07/15 17:20、7/15 17:20、明天 09:00 的格式。"
	}
}

// renderInstant formats an instant in the deployment location for replies.
func (h *Handlers) renderInstant(t time.Time) string {
	loc := h.Svc.Loc
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006/01/02 15:04")
}

// reply sends messages through the reply token and logs delivery failures.
// Reply tokens are one-shot and short-lived, so failures are not retried.
func (h *Handlers) reply(c *gin.Context, replyToken string, msgs ...line.Message) {
	if replyToken == "" {
		return
	}
	if err := h.Replies.Reply(c.Request.Context(), replyToken, msgs...); err != nil {
		LoggerFor(c).Error().Err(err).Msg("reply failed")
	}
}

// LoggerFor returns the request-scoped structured logger.
func LoggerFor(c *gin.Context) *zerolog.Logger {
	return middleware.LoggerFrom(c)
}

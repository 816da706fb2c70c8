// Package telegram adapts the Telegram Bot API to the bot and verification
// packages.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"earnbot/internal/bot"
)

// API is the subset of *tgbotapi.BotAPI used by this package.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetMe() (tgbotapi.User, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client sends messages and answers membership queries for one required channel.
type Client struct {
	api     API
	channel string
}

// NewClient creates a Client. channel is either "@username" or a numeric chat id.
func NewClient(api API, channel string) *Client {
	return &Client{api: api, channel: channel}
}

// SendMessage sends a text message with optional inline buttons.
func (c *Client) SendMessage(ctx context.Context, msg bot.OutgoingMessage) error {
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if len(msg.Buttons) > 0 {
		out.ReplyMarkup = inlineKeyboard(msg.Buttons)
	}
	return c.do(ctx, func() error {
		_, err := c.api.Send(out)
		return err
	})
}

// SendPhoto uploads an image with a caption.
func (c *Client) SendPhoto(ctx context.Context, photo bot.Photo) error {
	out := tgbotapi.NewPhoto(photo.ChatID, tgbotapi.FileBytes{Name: photo.FileName, Bytes: photo.Data})
	out.Caption = photo.Caption
	return c.do(ctx, func() error {
		_, err := c.api.Send(out)
		return err
	})
}

// AnswerCallback acknowledges a callback query so the client stops its spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.do(ctx, func() error {
		_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
		return err
	})
}

// MemberStatus returns the user's status in the required channel. A user
// Telegram does not know is reported as "left".
func (c *Client) MemberStatus(ctx context.Context, userID int64) (string, error) {
	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: c.chatWithUser(userID)}

	var status string
	err := c.do(ctx, func() error {
		member, err := c.api.GetChatMember(cfg)
		if err != nil {
			return err
		}
		status = member.Status
		return nil
	})
	if err != nil {
		if isUnknownParticipant(err) {
			return "left", nil
		}
		return "", err
	}
	return status, nil
}

func (c *Client) chatWithUser(userID int64) tgbotapi.ChatConfigWithUser {
	if id, err := strconv.ParseInt(c.channel, 10, 64); err == nil {
		return tgbotapi.ChatConfigWithUser{ChatID: id, UserID: userID}
	}
	return tgbotapi.ChatConfigWithUser{SuperGroupUsername: c.channel, UserID: userID}
}

// do runs a blocking Bot API call and gives up when ctx is done. The call
// itself keeps running until the HTTP client returns.
func (c *Client) do(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isUnknownParticipant(err error) bool {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) || tgErr.Code != 400 {
		return false
	}
	msg := strings.ToLower(tgErr.Message)
	return strings.Contains(msg, "user not found") || strings.Contains(msg, "participant_id_invalid")
}

func inlineKeyboard(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
			}
		}
		keyboard = append(keyboard, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// SetBotCommands registers the command menu shown by Telegram clients.
func SetBotCommands(api API) error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "🚀 Register and get started"},
		{Command: "verify", Description: "✅ Check your channel membership"},
		{Command: "balance", Description: "💰 Show your earnings"},
		{Command: "invite", Description: "📤 Get your referral link"},
		{Command: "admin", Description: "🛠 Open the admin panel"},
	}

	_, err := api.Request(tgbotapi.NewSetMyCommands(commands...))
	return err
}

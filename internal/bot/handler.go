package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/logger"
	"earnbot/internal/models"
	"earnbot/internal/services"
	"earnbot/internal/verification"
)

// Verifier runs a membership check and records the resulting state.
type Verifier interface {
	Check(ctx context.Context, externalID int64) (*verification.Outcome, error)
}

// TokenIssuer signs the launch token appended to the app URL.
type TokenIssuer interface {
	Issue(externalID int64) (string, error)
}

// Settings holds the links the handler puts into messages.
type Settings struct {
	BotUsername   string
	ChannelURL    string
	WebAppURL     string
	AdminPanelURL string
}

// Handler processes inbound events. It is safe for concurrent use.
type Handler struct {
	accounts  services.AccountServicer
	verifier  Verifier
	messenger Messenger
	tokens    TokenIssuer
	settings  Settings
	log       *zap.SugaredLogger
}

// NewHandler creates a Handler.
func NewHandler(accounts services.AccountServicer, verifier Verifier, messenger Messenger, tokens TokenIssuer, settings Settings) *Handler {
	return &Handler{
		accounts:  accounts,
		verifier:  verifier,
		messenger: messenger,
		tokens:    tokens,
		settings:  settings,
		log:       logger.Named("bot"),
	}
}

// Handle processes one event. It never panics and never returns an error:
// failures are logged and the user is told to try again later.
func (h *Handler) Handle(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("panic while handling event",
				"user_id", ev.UserID, "command", ev.Command, "callback", ev.CallbackData, "panic", r)
			h.fail(ctx, ev)
		}
	}()

	if err := h.dispatch(ctx, ev); err != nil {
		h.log.Errorw("failed to handle event",
			"user_id", ev.UserID, "command", ev.Command, "callback", ev.CallbackData, "error", err)
		h.fail(ctx, ev)
	}
}

func (h *Handler) dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventCallback:
		if ev.CallbackData == CallbackVerify {
			return h.handleVerify(ctx, ev)
		}
		return h.messenger.AnswerCallback(ctx, ev.CallbackID, "")
	case EventCommand:
		switch strings.ToLower(ev.Command) {
		case "start":
			return h.handleStart(ctx, ev)
		case "verify", "recheck":
			return h.handleVerify(ctx, ev)
		case "admin":
			return h.handleAdmin(ctx, ev)
		case "invite":
			return h.handleInvite(ctx, ev)
		case "balance":
			return h.handleBalance(ctx, ev)
		}
	}
	return h.send(ctx, ev.ChatID, msgHelp)
}

// fail reports a failure to the user. Errors and panics here are only
// logged: the messenger may be what failed in the first place.
func (h *Handler) fail(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("panic while reporting failure", "user_id", ev.UserID, "panic", r)
		}
	}()

	if ev.Kind == EventCallback && ev.CallbackID != "" {
		if err := h.messenger.AnswerCallback(ctx, ev.CallbackID, answerTryAgain); err != nil {
			h.log.Warnw("failed to answer callback", "user_id", ev.UserID, "error", err)
		}
	}
	if err := h.send(ctx, ev.ChatID, msgFailure); err != nil {
		h.log.Warnw("failed to send failure message", "user_id", ev.UserID, "error", err)
	}
}

func (h *Handler) handleStart(ctx context.Context, ev Event) error {
	account, err := h.accounts.GetAccount(ev.UserID)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		return h.register(ctx, ev)
	}
	if err != nil {
		return err
	}

	if verification.StateOf(account) != verification.StateVerified {
		return h.sendJoinPrompt(ctx, ev, account, msgJoinPrompt)
	}

	out, err := h.verifier.Check(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if out.Current == verification.StateVerified {
		return h.sendWelcomeBack(ctx, ev, out.Account)
	}
	return h.sendJoinPrompt(ctx, ev, out.Account, msgRejoinPrompt)
}

// register creates the account for a first contact, credits the referrer
// and sends the welcome and join messages.
func (h *Handler) register(ctx context.Context, ev Event) error {
	referrerID := parseReferrer(ev.Args, ev.UserID)

	account, err := h.accounts.CreateAccount(ev.UserID, displayNameFor(ev), ev.FirstName, ev.LastName, referrerID)
	if errors.Is(err, apperrors.ErrDuplicateAccount) {
		// The username may already belong to someone else; the fallback carries the user id.
		account, err = h.accounts.CreateAccount(ev.UserID, fallbackDisplayName(ev), ev.FirstName, ev.LastName, referrerID)
	}
	if err != nil {
		return err
	}
	h.log.Infow("account registered", "user_id", ev.UserID, "display_name", account.DisplayName)

	if referrerID != nil {
		if err := h.accounts.RecordReferral(*referrerID); err != nil {
			h.log.Warnw("failed to record referral", "user_id", ev.UserID, "referrer_id", *referrerID, "error", err)
		}
	}

	if err := h.send(ctx, ev.ChatID, fmt.Sprintf(msgWelcome, FormatName(account.DisplayName))); err != nil {
		return err
	}
	return h.sendJoinPrompt(ctx, ev, account, msgJoinPrompt)
}

func (h *Handler) handleVerify(ctx context.Context, ev Event) error {
	out, err := h.verifier.Check(ctx, ev.UserID)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		if ev.Kind == EventCallback {
			if err := h.messenger.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
				h.log.Warnw("failed to answer callback", "user_id", ev.UserID, "error", err)
			}
		}
		return h.register(ctx, ev)
	}
	if err != nil {
		return err
	}

	answer := answerNotMember
	if out.Member {
		answer = answerVerified
	}
	if ev.Kind == EventCallback {
		if err := h.messenger.AnswerCallback(ctx, ev.CallbackID, answer); err != nil {
			h.log.Warnw("failed to answer callback", "user_id", ev.UserID, "error", err)
		}
	}

	if !out.Member {
		return h.sendJoinPrompt(ctx, ev, out.Account, msgNotMember)
	}

	appURL, err := h.appURL(ev.UserID)
	if err != nil {
		return err
	}
	return h.messenger.SendMessage(ctx, OutgoingMessage{
		ChatID:  ev.ChatID,
		Text:    fmt.Sprintf(msgVerified, FormatName(out.Account.DisplayName)),
		Buttons: [][]Button{{{Text: btnOpenApp, URL: appURL}}},
	})
}

func (h *Handler) handleAdmin(ctx context.Context, ev Event) error {
	return h.messenger.SendMessage(ctx, OutgoingMessage{
		ChatID:  ev.ChatID,
		Text:    msgAdmin,
		Buttons: [][]Button{{{Text: btnAdmin, URL: h.settings.AdminPanelURL}}},
	})
}

func (h *Handler) handleInvite(ctx context.Context, ev Event) error {
	link := h.referralLink(ev.UserID)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode referral qr: %w", err)
	}

	if err := h.messenger.SendPhoto(ctx, Photo{
		ChatID:   ev.ChatID,
		FileName: "invite.png",
		Data:     png,
		Caption:  fmt.Sprintf(msgInvite, link),
	}); err != nil {
		return err
	}

	shareURL := "https://t.me/share/url?url=" + url.QueryEscape(link)
	return h.messenger.SendMessage(ctx, OutgoingMessage{
		ChatID:  ev.ChatID,
		Text:    link,
		Buttons: [][]Button{{{Text: btnShare, URL: shareURL}}},
	})
}

func (h *Handler) handleBalance(ctx context.Context, ev Event) error {
	account, err := h.accounts.GetAccount(ev.UserID)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		return h.send(ctx, ev.ChatID, msgNeedStart)
	}
	if err != nil {
		return err
	}

	text := fmt.Sprintf(msgBalance,
		FormatName(account.DisplayName),
		account.AdCount,
		account.Earn.StringFixed(2),
		account.ReferralCount,
	)
	return h.send(ctx, ev.ChatID, text)
}

func (h *Handler) sendJoinPrompt(ctx context.Context, ev Event, account *models.Account, template string) error {
	return h.messenger.SendMessage(ctx, OutgoingMessage{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf(template, FormatName(account.DisplayName)),
		Buttons: [][]Button{
			{{Text: btnJoin, URL: h.settings.ChannelURL}},
			{{Text: btnVerify, CallbackData: CallbackVerify}},
		},
	})
}

func (h *Handler) sendWelcomeBack(ctx context.Context, ev Event, account *models.Account) error {
	appURL, err := h.appURL(ev.UserID)
	if err != nil {
		return err
	}

	verifiedSince := unknownDateLabel
	if account.ChannelJoinedAt != nil {
		verifiedSince = account.ChannelJoinedAt.UTC().Format(dateLayout)
	}

	return h.messenger.SendMessage(ctx, OutgoingMessage{
		ChatID: ev.ChatID,
		Text: fmt.Sprintf(msgWelcomeBack,
			FormatName(account.DisplayName),
			formatDate(account.JoinedAt),
			verifiedSince,
		),
		Buttons: [][]Button{{{Text: btnOpenApp, URL: appURL}}},
	})
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) error {
	return h.messenger.SendMessage(ctx, OutgoingMessage{ChatID: chatID, Text: text})
}

// appURL is the web app link carrying a signed launch token.
func (h *Handler) appURL(externalID int64) (string, error) {
	token, err := h.tokens.Issue(externalID)
	if err != nil {
		return "", fmt.Errorf("issue launch token: %w", err)
	}

	u, err := url.Parse(h.settings.WebAppURL)
	if err != nil {
		return "", fmt.Errorf("parse web app url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (h *Handler) referralLink(externalID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", h.settings.BotUsername, externalID)
}

// parseReferrer reads the /start payload. Malformed ids and self-referrals are ignored.
func parseReferrer(payload string, self int64) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil || id <= 0 || id == self {
		return nil
	}
	return &id
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return unknownDateLabel
	}
	return t.UTC().Format(dateLayout)
}

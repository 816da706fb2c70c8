package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"earnbot/internal/bot"
	"earnbot/internal/logger"
)

// EventHandler processes one inbound event.
type EventHandler interface {
	Handle(ctx context.Context, ev bot.Event)
}

// Runner long-polls Telegram and dispatches every update on its own goroutine.
type Runner struct {
	api     API
	handler EventHandler
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(api API, handler EventHandler) *Runner {
	return &Runner{api: api, handler: handler, log: logger.Named("telegram")}
}

// Run polls until ctx is cancelled, then waits for in-flight events.
func (r *Runner) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)
	r.log.Infow("update loop started")

	// in-flight events finish even after shutdown begins
	eventCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			r.api.StopReceivingUpdates()
			r.wg.Wait()
			r.log.Infow("update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				r.wg.Wait()
				return
			}
			ev, ok := EventFromUpdate(update)
			if !ok {
				continue
			}
			r.log.Debugw("update received", "update_id", update.UpdateID, "user_id", ev.UserID)

			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.handler.Handle(eventCtx, ev)
			}()
		}
	}
}

// EventFromUpdate converts a Telegram update. Updates the bot does not act
// on are reported with ok=false.
func EventFromUpdate(update tgbotapi.Update) (bot.Event, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		cq := update.CallbackQuery
		ev := bot.Event{
			Kind:         bot.EventCallback,
			ChatID:       cq.From.ID,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			ev.ChatID = cq.Message.Chat.ID
		}
		fillUser(&ev, cq.From)
		return ev, true

	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		ev := bot.Event{Kind: bot.EventText, ChatID: msg.From.ID, Text: msg.Text}
		if msg.Chat != nil {
			ev.ChatID = msg.Chat.ID
		}
		if msg.IsCommand() {
			ev.Kind = bot.EventCommand
			ev.Command = msg.Command()
			ev.Args = msg.CommandArguments()
		}
		fillUser(&ev, msg.From)
		return ev, true
	}
	return bot.Event{}, false
}

func fillUser(ev *bot.Event, u *tgbotapi.User) {
	ev.UserID = u.ID
	ev.Username = u.UserName
	ev.FirstName = u.FirstName
	ev.LastName = u.LastName
}

package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"valley_bot/internal/logging"
	"valley_bot/internal/metrics"
)

// Messenger is the outbound Telegram surface used by handlers. *bot.Bot
// satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

var _ Messenger = (*bot.Bot)(nil)

// HandlerFunc handles one routed event.
type HandlerFunc func(ctx context.Context, m Messenger, ev Event) error

type prefixRoute struct {
	prefix  string
	handler HandlerFunc
}

// Router dispatches commands by name and callbacks by data prefix. Every
// handler runs inside an error boundary.
type Router struct {
	commands  map[string]HandlerFunc
	callbacks []prefixRoute
	onPanic   HandlerFunc
	logger    *logrus.Entry
	metrics   *metrics.Metrics
}

// NewRouter constructs an empty Router.
func NewRouter(logger *logrus.Entry, m *metrics.Metrics) *Router {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Router{
		commands: make(map[string]HandlerFunc),
		logger:   logger,
		metrics:  m,
	}
}

// Command registers h for /name.
func (r *Router) Command(name string, h HandlerFunc) {
	r.commands[strings.ToLower(name)] = h
}

// Callback registers h for callback data starting with prefix. The longest
// matching prefix wins.
func (r *Router) Callback(prefix string, h HandlerFunc) {
	r.callbacks = append(r.callbacks, prefixRoute{prefix: prefix, handler: h})
}

// OnPanic registers h to reply to the chat after a handler panicked.
func (r *Router) OnPanic(h HandlerFunc) {
	r.onPanic = h
}

// Dispatch routes ev and reports whether a handler ran.
func (r *Router) Dispatch(ctx context.Context, m Messenger, ev Event) bool {
	route, h := r.match(ev)
	if h == nil {
		if ev.Command != "" || ev.CallbackData != "" {
			r.logger.WithFields(logging.Fields{
				"event":   "route_not_found",
				"chat_id": ev.ChatID,
				"text":    ev.Text,
			}).Debug("no handler for update")
		}
		return false
	}

	r.run(ctx, route, h, m, ev)
	return true
}

func (r *Router) match(ev Event) (string, HandlerFunc) {
	if ev.CallbackData != "" {
		var best prefixRoute
		for _, route := range r.callbacks {
			if strings.HasPrefix(ev.CallbackData, route.prefix) && len(route.prefix) > len(best.prefix) {
				best = route
			}
		}
		return best.prefix, best.handler
	}

	if ev.Command != "" {
		if h, ok := r.commands[ev.Command]; ok {
			return "/" + ev.Command, h
		}
	}

	return "", nil
}

func (r *Router) run(ctx context.Context, route string, h HandlerFunc, m Messenger, ev Event) {
	chat := logging.Chat{
		Route:  route,
		ChatID: ev.ChatID,
		UserID: ev.UserID,
		Owner:  ev.Owner().String(),
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.ObserveHandlerError(route)
			chat.Event = "handler_panic"
			logging.ForChat(r.logger, chat).WithError(fmt.Errorf("panic: %v", rec)).Error("handler panicked")
			r.replyAfterPanic(ctx, chat, m, ev)
		}
	}()

	r.metrics.ObserveUpdate(route)

	if err := h(ctx, m, ev); err != nil {
		r.metrics.ObserveHandlerError(route)
		chat.Event = "handler_error"
		logging.ForChat(r.logger, chat).WithError(err).Error("handler failed")
	}
}

func (r *Router) replyAfterPanic(ctx context.Context, chat logging.Chat, m Messenger, ev Event) {
	if r.onPanic == nil || m == nil {
		return
	}

	chat.Event = "panic_reply_error"
	defer func() {
		if rec := recover(); rec != nil {
			logging.ForChat(r.logger, chat).WithError(fmt.Errorf("panic: %v", rec)).Error("panic reply panicked")
		}
	}()

	if err := r.onPanic(ctx, m, ev); err != nil {
		logging.ForChat(r.logger, chat).WithError(err).Error("failed to reply after panic")
	}
}

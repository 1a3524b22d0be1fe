package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"valley_bot/internal/domain"
	"valley_bot/internal/feature/points"
	"valley_bot/internal/i18n"
	"valley_bot/internal/logging"
)

// Registrar creates owners on /start.
type Registrar interface {
	Register(ctx context.Context, owner domain.Owner, displayName string) (domain.Registration, error)
}

// Ledger reads balances.
type Ledger interface {
	Balance(ctx context.Context, owner domain.Owner) (points.Summary, error)
}

// AdViewer runs the ad view flow.
type AdViewer interface {
	View(ctx context.Context, owner domain.Owner, policy domain.AdPolicy) (domain.AdViewOutcome, error)
}

// Preferences resolves and changes chat languages.
type Preferences interface {
	Resolve(ctx context.Context, owner domain.Owner) domain.Language
	Set(ctx context.Context, owner domain.Owner, lang domain.Language) error
}

// Handlers implements every command and callback of the bot. Feature errors
// become localized replies; only delivery failures are returned.
type Handlers struct {
	registrar Registrar
	ledger    Ledger
	ads       AdViewer
	prefs     Preferences
	catalog   *i18n.Catalog
	logger    *logrus.Entry
}

// NewHandlers wires the feature services into handlers.
func NewHandlers(registrar Registrar, ledger Ledger, ads AdViewer, prefs Preferences, catalog *i18n.Catalog, logger *logrus.Entry) *Handlers {
	if logger == nil {
		logger = logging.Logger()
	}
	if catalog == nil {
		catalog = i18n.NewCatalog()
	}

	return &Handlers{
		registrar: registrar,
		ledger:    ledger,
		ads:       ads,
		prefs:     prefs,
		catalog:   catalog,
		logger:    logger,
	}
}

// Mount registers all routes on r.
func (h *Handlers) Mount(r *Router) {
	r.Command("start", h.start)
	r.Command("menu", h.menu)
	r.Command("help", h.help)
	r.Command("points", h.pointsCommand)
	r.Command("point", h.pointsCommand)
	r.Command("ads", h.adCommand)
	r.Command("ad", h.adCommand)
	r.Command("language", h.languageMenu)

	r.Callback(callbackMenuPrefix, h.menuAction)
	r.Callback(callbackLangPrefix, h.changeLanguage)
	r.Callback(callbackClaimValPrefix, h.claimVal)

	r.OnPanic(h.failure)
}

func (h *Handlers) start(ctx context.Context, m Messenger, ev Event) error {
	owner := ev.Owner()

	reg, err := h.registrar.Register(ctx, owner, ev.DisplayName())
	if err != nil {
		lang := h.prefs.Resolve(ctx, owner)
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.RegistrationError), nil)
	}

	key := i18n.UserExists
	switch {
	case owner.IsGroup() && reg.Created:
		key = i18n.GroupRegistered
	case owner.IsGroup():
		key = i18n.GroupExists
	case reg.Created:
		key = i18n.UserRegistered
	}

	if err := h.send(ctx, m, ev.ChatID, h.catalog.Text(reg.Language, key), nil); err != nil {
		return err
	}
	return h.sendMainMenu(ctx, m, ev.ChatID, reg.Language)
}

func (h *Handlers) menu(ctx context.Context, m Messenger, ev Event) error {
	return h.sendMainMenu(ctx, m, ev.ChatID, h.prefs.Resolve(ctx, ev.Owner()))
}

func (h *Handlers) help(ctx context.Context, m Messenger, ev Event) error {
	lang := h.prefs.Resolve(ctx, ev.Owner())
	return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.HelpMenu), nil)
}

func (h *Handlers) pointsCommand(ctx context.Context, m Messenger, ev Event) error {
	return h.showPoints(ctx, m, ev, true)
}

func (h *Handlers) adCommand(ctx context.Context, m Messenger, ev Event) error {
	return h.showAd(ctx, m, ev, domain.AdPolicyLatest)
}

func (h *Handlers) languageMenu(ctx context.Context, m Messenger, ev Event) error {
	lang := h.prefs.Resolve(ctx, ev.Owner())
	return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.LanguageMenu), languageKeyboard())
}

func (h *Handlers) menuAction(ctx context.Context, m Messenger, ev Event) error {
	h.answer(ctx, m, ev)

	switch strings.TrimPrefix(ev.CallbackData, callbackMenuPrefix) {
	case menuActionAd:
		return h.showAd(ctx, m, ev, domain.AdPolicyRandom)
	case menuActionPoints:
		return h.showPoints(ctx, m, ev, false)
	case menuActionHelp:
		return h.help(ctx, m, ev)
	case menuActionLanguage:
		return h.languageMenu(ctx, m, ev)
	default:
		lang := h.prefs.Resolve(ctx, ev.Owner())
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.UnknownAction), nil)
	}
}

func (h *Handlers) changeLanguage(ctx context.Context, m Messenger, ev Event) error {
	h.answer(ctx, m, ev)

	owner := ev.Owner()
	target, err := domain.ParseLanguage(strings.TrimPrefix(ev.CallbackData, callbackLangPrefix))
	if err != nil {
		h.logger.WithFields(logging.Fields{
			"event": "language_rejected",
			"owner": owner.String(),
			"data":  ev.CallbackData,
		}).Warn("unsupported language requested")
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(h.prefs.Resolve(ctx, owner), i18n.LanguageError), nil)
	}

	if err := h.prefs.Set(ctx, owner, target); err != nil {
		key := i18n.LanguageError
		if errors.Is(err, domain.ErrNotRegistered) {
			key = i18n.NotRegistered
		}
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(h.prefs.Resolve(ctx, owner), key), nil)
	}

	key := i18n.LanguageChangedKo
	if target == domain.LanguageEnglish {
		key = i18n.LanguageChangedEn
	}
	return h.send(ctx, m, ev.ChatID, h.catalog.Text(target, key), nil)
}

func (h *Handlers) claimVal(ctx context.Context, m Messenger, ev Event) error {
	h.answer(ctx, m, ev)

	owner := ev.Owner()
	fields := logging.Fields{
		"event": "claim_val_requested",
		"owner": owner.String(),
	}
	if n, err := strconv.ParseInt(strings.TrimPrefix(ev.CallbackData, callbackClaimValPrefix), 10, 64); err == nil {
		fields["points"] = n
	}
	h.logger.WithFields(fields).Info("val claim requested")

	return h.send(ctx, m, ev.ChatID, h.catalog.Text(h.prefs.Resolve(ctx, owner), i18n.ClaimUnavailable), nil)
}

func (h *Handlers) showPoints(ctx context.Context, m Messenger, ev Event, withClaim bool) error {
	owner := ev.Owner()
	lang := h.prefs.Resolve(ctx, owner)

	summary, err := h.ledger.Balance(ctx, owner)
	if err != nil {
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.PointsError), nil)
	}

	key := i18n.PointsPrivate
	if owner.IsGroup() {
		key = i18n.PointsGroup
	}

	var markup models.ReplyMarkup
	if withClaim {
		markup = claimKeyboard(h.catalog, lang, summary.Points)
	}
	return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, key, summary.Points, summary.Val), markup)
}

func (h *Handlers) showAd(ctx context.Context, m Messenger, ev Event, policy domain.AdPolicy) error {
	owner := ev.Owner()
	lang := h.prefs.Resolve(ctx, owner)

	outcome, err := h.ads.View(ctx, owner, policy)
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.NotRegistered), nil)
	case err != nil:
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.AdError), nil)
	case outcome.Ad == nil:
		return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.AdNoAds), nil)
	}

	text := h.catalog.Text(lang, i18n.AdContent, outcome.Ad.Content)
	if outcome.Awarded {
		text += "\n\n" + h.catalog.Text(lang, i18n.AdPointsEarned, domain.AdViewAward)
	}

	var markup models.ReplyMarkup
	if outcome.Ad.URL != "" {
		markup = adLinkKeyboard(h.catalog, lang, outcome.Ad.URL)
	}

	// Ad content is operator text and may not be valid Markdown.
	err = h.send(ctx, m, ev.ChatID, text, markup)
	if errors.Is(err, bot.ErrorBadRequest) {
		logging.ForChat(h.logger, logging.Chat{Event: "ad_markup_rejected", ChatID: ev.ChatID, UserID: ev.UserID, Owner: owner.String()}).
			WithField("ad_id", outcome.Ad.ID).
			WithError(err).Warn("ad rejected as markdown, sending plain text")
		return h.sendWith(ctx, m, ev.ChatID, text, markup, "")
	}
	return err
}

// failure tells the chat its request was dropped.
func (h *Handlers) failure(ctx context.Context, m Messenger, ev Event) error {
	lang := h.prefs.Resolve(ctx, ev.Owner())
	return h.send(ctx, m, ev.ChatID, h.catalog.Text(lang, i18n.GenericError), nil)
}

func (h *Handlers) sendMainMenu(ctx context.Context, m Messenger, chatID int64, lang domain.Language) error {
	return h.send(ctx, m, chatID, h.catalog.Text(lang, i18n.MainMenu), mainMenuKeyboard(h.catalog, lang))
}

func (h *Handlers) send(ctx context.Context, m Messenger, chatID int64, text string, markup models.ReplyMarkup) error {
	return h.sendWith(ctx, m, chatID, text, markup, models.ParseModeMarkdownV1)
}

func (h *Handlers) sendWith(ctx context.Context, m Messenger, chatID int64, text string, markup models.ReplyMarkup, mode models.ParseMode) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: mode,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := m.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// answer acknowledges a callback so the client stops its spinner. Failures are
// logged and do not block the reply.
func (h *Handlers) answer(ctx context.Context, m Messenger, ev Event) {
	if !ev.IsCallback() {
		return
	}

	if _, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: ev.CallbackID}); err != nil {
		logging.ForChat(h.logger, logging.Chat{Event: "callback_answer_error", ChatID: ev.ChatID, UserID: ev.UserID}).
			WithField("callback_id", ev.CallbackID).
			WithError(err).Warn("failed to answer callback query")
	}
}

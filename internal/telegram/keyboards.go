package telegram

import (
	"strconv"

	"github.com/go-telegram/bot/models"

	"valley_bot/internal/domain"
	"valley_bot/internal/i18n"
)

// Callback data.
const (
	callbackMenuPrefix     = "menu_"
	callbackLangPrefix     = "lang_"
	callbackClaimValPrefix = "claim_val_"

	menuActionAd       = "ad"
	menuActionPoints   = "points"
	menuActionHelp     = "help"
	menuActionLanguage = "language"
)

var languageButtonLabels = map[domain.Language]string{
	domain.LanguageKorean:  "🇰🇷 한국어",
	domain.LanguageEnglish: "🇺🇸 English",
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func mainMenuKeyboard(c *i18n.Catalog, lang domain.Language) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button(c.Text(lang, i18n.ButtonAd), callbackMenuPrefix+menuActionAd),
				button(c.Text(lang, i18n.ButtonPoints), callbackMenuPrefix+menuActionPoints),
			},
			{
				button(c.Text(lang, i18n.ButtonHelp), callbackMenuPrefix+menuActionHelp),
				button(c.Text(lang, i18n.ButtonLanguage), callbackMenuPrefix+menuActionLanguage),
			},
		},
	}
}

func languageKeyboard() *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(domain.Languages))
	for _, lang := range domain.Languages {
		row = append(row, button(languageButtonLabels[lang], callbackLangPrefix+string(lang)))
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

func claimKeyboard(c *i18n.Catalog, lang domain.Language, points int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button(c.Text(lang, i18n.ButtonClaimVal), callbackClaimValPrefix+strconv.FormatInt(points, 10))},
		},
	}
}

func adLinkKeyboard(c *i18n.Catalog, lang domain.Language, url string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: c.Text(lang, i18n.AdLinkButton), URL: url}},
		},
	}
}

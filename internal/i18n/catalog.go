// Package i18n holds the compiled-in message catalog and renders messages in
// an owner's language.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"valley_bot/internal/domain"
)

// Key identifies a message in the catalog.
type Key string

// Message keys.
const (
	MainMenu          Key = "main_menu"
	HelpMenu          Key = "help_menu"
	PointsPrivate     Key = "points_private"
	PointsGroup       Key = "points_group"
	PointsError       Key = "points_error"
	AdContent         Key = "ad_content"
	AdPointsEarned    Key = "ad_points_earned"
	AdNoAds           Key = "ad_no_ads"
	AdError           Key = "ad_error"
	AdLinkButton      Key = "ad_link_button"
	LanguageMenu      Key = "language_menu"
	LanguageChangedKo Key = "language_changed_ko"
	LanguageChangedEn Key = "language_changed_en"
	LanguageError     Key = "language_error"
	UserRegistered    Key = "user_registered"
	UserExists        Key = "user_exists"
	GroupRegistered   Key = "group_registered"
	GroupExists       Key = "group_exists"
	RegistrationError Key = "registration_error"
	NotRegistered     Key = "not_registered"
	ClaimUnavailable  Key = "claim_unavailable"
	UnknownAction     Key = "unknown_action"
	GenericError      Key = "generic_error"
	ButtonAd          Key = "button_ad"
	ButtonPoints      Key = "button_points"
	ButtonHelp        Key = "button_help"
	ButtonLanguage    Key = "button_language"
	ButtonClaimVal    Key = "button_claim_val"
)

var tags = map[domain.Language]language.Tag{
	domain.LanguageKorean:  language.Korean,
	domain.LanguageEnglish: language.English,
}

// Catalog renders templates with a per-language printer so numbers pick up
// locale grouping.
type Catalog struct {
	templates map[domain.Language]map[Key]string
	printers  map[domain.Language]*message.Printer
}

// NewCatalog builds the catalog from the compiled-in tables.
func NewCatalog() *Catalog {
	c := &Catalog{
		templates: map[domain.Language]map[Key]string{
			domain.LanguageKorean:  koreanTexts,
			domain.LanguageEnglish: englishTexts,
		},
		printers: make(map[domain.Language]*message.Printer, len(tags)),
	}

	for lang, tag := range tags {
		c.printers[lang] = message.NewPrinter(tag)
	}

	return c
}

// Text renders key in lang. Unsupported languages render in Korean; keys
// missing from a language fall back to the default language and finally to
// the key itself.
func (c *Catalog) Text(lang domain.Language, key Key, args ...interface{}) string {
	lang = lang.OrDefault()

	tmpl, ok := c.templates[lang][key]
	if !ok {
		tmpl, ok = c.templates[domain.DefaultLanguage][key]
		if !ok {
			return string(key)
		}
	}

	if len(args) == 0 {
		return tmpl
	}

	return c.printers[lang].Sprintf(tmpl, args...)
}

// Has reports whether every supported language defines key.
func (c *Catalog) Has(key Key) bool {
	for _, lang := range domain.Languages {
		if _, ok := c.templates[lang][key]; !ok {
			return false
		}
	}
	return true
}

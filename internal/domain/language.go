package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Language is a supported interface language code.
type Language string

const (
	// LanguageKorean is the default language for new owners.
	LanguageKorean Language = "ko"
	// LanguageEnglish is the alternative language.
	LanguageEnglish Language = "en"

	// DefaultLanguage is used when an owner has no stored preference.
	DefaultLanguage = LanguageKorean
)

// ErrUnknownLanguage is returned for language codes the bot cannot render.
var ErrUnknownLanguage = errors.New("unknown language")

// Languages lists the supported languages in menu order.
var Languages = []Language{LanguageKorean, LanguageEnglish}

// ParseLanguage validates a language code such as the suffix of a lang_<code>
// callback.
func ParseLanguage(code string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	if lang.Valid() {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
}

// Valid reports whether the language is supported.
func (l Language) Valid() bool {
	return l == LanguageKorean || l == LanguageEnglish
}

// OrDefault returns the language, or DefaultLanguage when it is not supported.
func (l Language) OrDefault() Language {
	if l.Valid() {
		return l
	}
	return DefaultLanguage
}

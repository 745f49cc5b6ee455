package news

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
)

var (
	supportedTags    = []language.Tag{language.English, language.Hindi}
	supportedMatcher = language.NewMatcher(supportedTags)
)

// ParseLanguage maps any BCP 47 value onto a supported language. Empty or
// unrecognised values fall back to English.
func ParseLanguage(value string) Language {
	if value == "" {
		return English
	}
	tag, err := language.Parse(value)
	if err != nil {
		return English
	}
	_, index, confidence := supportedMatcher.Match(tag)
	if confidence == language.No {
		return English
	}
	base, _ := supportedTags[index].Base()
	return Language(base.String())
}

func (l Language) Tag() language.Tag {
	return language.Make(string(l))
}

// DisplayName is the English name of the language, as used in generation prompts.
func (l Language) DisplayName() string {
	return display.English.Languages().Name(l.Tag())
}

func (l Language) String() string {
	return string(l)
}

// Package speech renders reply text as SSML for voice channels.
package speech

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"golang.org/x/text/language"
)

const EnglishLanguage = "en-US"

// Generator wraps text in SSML with a fixed voice font.
type Generator struct {
	VoiceFont string
	Language  string
}

func New(voiceFont, lang string) *Generator {
	if lang == "" {
		lang = EnglishLanguage
	}
	return &Generator{VoiceFont: voiceFont, Language: lang}
}

// Markup renders text in the generator's default language.
func (g *Generator) Markup(text string) string {
	return g.ToMarkup(text, g.Language)
}

// ToMarkup returns an SSML document for text. An invalid language tag yields
// the plain text unchanged.
func (g *Generator) ToMarkup(text, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return text
	}
	locale := tag.String()

	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return text
	}

	voice := fmt.Sprintf("Microsoft Server Speech Text to Speech Voice (%s, %s)", locale, g.VoiceFont)
	var attr bytes.Buffer
	_ = xml.EscapeText(&attr, []byte(voice))

	return fmt.Sprintf(`<speak version="1.0" xmlns="https://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		locale, attr.String(), escaped.String())
}

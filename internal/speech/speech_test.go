package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMarkup(t *testing.T) {
	g := New("JessaRUS", EnglishLanguage)

	got := g.Markup("Hi, I'm a test version of Fridai.")

	assert.Equal(t,
		`<speak version="1.0" xmlns="https://www.w3.org/2001/10/synthesis" xml:lang="en-US">`+
			`<voice name="Microsoft Server Speech Text to Speech Voice (en-US, JessaRUS)">Hi, I&#39;m a test version of Fridai.</voice></speak>`,
		got)
}

func TestToMarkupEscapesText(t *testing.T) {
	g := New("JessaRUS", "")

	got := g.Markup("Fish & <chips>")

	assert.Contains(t, got, "Fish &amp; &lt;chips&gt;")
}

func TestToMarkupInvalidLanguageFallsBackToText(t *testing.T) {
	g := New("JessaRUS", EnglishLanguage)

	assert.Equal(t, "Hello", g.ToMarkup("Hello", "not a language tag!"))
}

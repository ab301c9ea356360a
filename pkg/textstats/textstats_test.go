package textstats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/sitegraph/pkg/textstats"
)

func TestSplitIntoSentences(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"This is a test. It contains several sentences.", []string{"This is a test.", "It contains several sentences."}},
		{"Version 1.2 is out! Really?", []string{"Version 1.2 is out!", "Really?"}},
		{"no terminator", []string{"no terminator"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, textstats.SplitIntoSentences(tt.text))
		})
	}
}

func TestCountSyllables(t *testing.T) {
	assert.Equal(t, 1, textstats.CountSyllables("cat"))
	assert.Equal(t, 1, textstats.CountSyllables("make"))
	assert.Equal(t, 2, textstats.CountSyllables("table"))
	assert.Equal(t, 3, textstats.CountSyllables("banana"))
	assert.Equal(t, 0, textstats.CountSyllables(""))
}

func TestReadability(t *testing.T) {
	assert.Equal(t, 0.0, textstats.Readability(""))

	simple := textstats.Readability("The cat sat. The dog ran.")
	dense := textstats.Readability("Comprehensive organizational documentation necessitates considerable interdisciplinary collaboration.")
	assert.Greater(t, simple, dense)
}

func TestSentiment(t *testing.T) {
	assert.Equal(t, 0.0, textstats.Sentiment("plain words only"))
	assert.Equal(t, 1.0, textstats.Sentiment("a great and simple tool"))
	assert.Equal(t, -1.0, textstats.Sentiment("slow and broken"))
	assert.Equal(t, 0.0, textstats.Sentiment("good but bad"))
	assert.Equal(t, 1.0, textstats.Sentiment("Fast, reliable (and simple)!"))
}

func TestKeywordDensity(t *testing.T) {
	p := textstats.NewWithConfig(textstats.Config{TopKeywords: 2, MinWordLength: 2})

	density := p.KeywordDensity("Go go gophers. The gophers love go.")
	assert.Len(t, density, 2)
	assert.InDelta(t, 3.0/7.0, density["go"], 1e-9)
	assert.InDelta(t, 2.0/7.0, density["gophers"], 1e-9)
	assert.NotContains(t, density, "the")
	assert.NotContains(t, density, ".")
}

func TestProcess(t *testing.T) {
	p := textstats.New()

	stats := p.Process("  This is a   test document.   It contains several sentences.  ")
	assert.Equal(t, 9, stats.WordCount)
	assert.Equal(t, 2, stats.SentenceCount)
	assert.Contains(t, stats.KeywordDensity, "test")
}

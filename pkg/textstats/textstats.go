package textstats

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

type Config struct {
	TopKeywords     int
	MinWordLength   int
	CustomStopwords []string
}

type Processor struct {
	config    Config
	stopwords map[string]bool
}

// Stats are the text metrics recorded for a crawled page.
type Stats struct {
	WordCount      int
	SentenceCount  int
	Readability    float64
	Sentiment      float64
	KeywordDensity map[string]float64
}

func NewWithConfig(config Config) *Processor {
	if config.TopKeywords == 0 {
		config.TopKeywords = 10
	}
	if config.MinWordLength == 0 {
		config.MinWordLength = 3
	}

	stopwords := make(map[string]bool)
	for _, w := range getStopwords() {
		stopwords[w] = true
	}
	for _, w := range config.CustomStopwords {
		stopwords[strings.ToLower(w)] = true
	}

	return &Processor{
		config:    config,
		stopwords: stopwords,
	}
}

func New() *Processor {
	return NewWithConfig(Config{})
}

func (p *Processor) Process(text string) Stats {
	text = cleanText(text)
	doc := parse(text)
	return Stats{
		WordCount:      WordCount(text),
		SentenceCount:  len(doc.sentences),
		Readability:    doc.readability(),
		Sentiment:      doc.sentiment(),
		KeywordDensity: p.keywordDensity(doc.words),
	}
}

// WordCount counts whitespace separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func cleanText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// parsed holds the sentences and lowercased word tokens of a text.
type parsed struct {
	sentences []string
	words     []string
}

func parse(text string) parsed {
	if strings.TrimSpace(text) == "" {
		return parsed{}
	}
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return parsed{}
	}

	var out parsed
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out.sentences = append(out.sentences, t)
		}
	}
	for _, tok := range doc.Tokens() {
		if isWord(tok.Text) {
			out.words = append(out.words, strings.ToLower(tok.Text))
		}
	}
	return out
}

// isWord drops punctuation and symbol tokens.
func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// SplitIntoSentences segments text into sentences.
func SplitIntoSentences(text string) []string {
	return parse(text).sentences
}

// CountSyllables estimates syllables by counting vowel groups.
func CountSyllables(word string) int {
	word = strings.ToLower(strings.Trim(word, "'"))
	if word == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}

	// silent trailing e
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

// Readability is the Flesch reading ease score.
func Readability(text string) float64 {
	return parse(text).readability()
}

func (d parsed) readability() float64 {
	if len(d.words) == 0 {
		return 0
	}
	sentences := max(len(d.sentences), 1)

	syllables := 0
	for _, w := range d.words {
		syllables += CountSyllables(w)
	}

	wps := float64(len(d.words)) / float64(sentences)
	spw := float64(syllables) / float64(len(d.words))
	score := 206.835 - 1.015*wps - 84.6*spw
	return math.Round(score*100) / 100
}

// Sentiment scores text in [-1, 1] from a polarity lexicon.
func Sentiment(text string) float64 {
	return parse(text).sentiment()
}

func (d parsed) sentiment() float64 {
	var pos, neg int
	for _, w := range d.words {
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// KeywordDensity returns the most frequent non-stopword unigrams with their
// share of all words in text.
func (p *Processor) KeywordDensity(text string) map[string]float64 {
	return p.keywordDensity(parse(text).words)
}

func (p *Processor) keywordDensity(ws []string) map[string]float64 {
	if len(ws) == 0 {
		return map[string]float64{}
	}

	counts := make(map[string]int)
	for _, w := range ws {
		if len([]rune(w)) < p.config.MinWordLength || p.stopwords[w] {
			continue
		}
		counts[w]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > p.config.TopKeywords {
		keys = keys[:p.config.TopKeywords]
	}

	density := make(map[string]float64, len(keys))
	for _, k := range keys {
		density[k] = float64(counts[k]) / float64(len(ws))
	}
	return density
}

// Common English stopwords
func getStopwords() []string {
	return []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with",
		"this", "you", "your", "our", "we", "they", "or", "but",
		"not", "can", "all", "more", "have", "had", "which", "their",
	}
}

var positiveWords = toSet(
	"good", "great", "excellent", "best", "easy", "fast", "free", "love",
	"happy", "secure", "reliable", "simple", "powerful", "amazing", "better",
	"success", "trusted", "helpful", "beautiful", "perfect", "benefit",
)

var negativeWords = toSet(
	"bad", "poor", "worst", "slow", "hard", "difficult", "error", "fail",
	"failed", "broken", "problem", "risk", "hate", "expensive", "wrong",
	"unfortunately", "warning", "issue", "complicated", "insecure",
)

func toSet(ws ...string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

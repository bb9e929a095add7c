package subtitle

import (
	"strings"
	"time"
	"unicode"
)

// defaultSyllablesPerSecond approximates a comfortable narration pace.
const defaultSyllablesPerSecond = 4.0

const vowels = "aeiouyàáâäæãåāèéêëēìíîïīòóôöœõøōùúûüū"

// DurationEstimator estimates how long a line takes to speak.
type DurationEstimator interface {
	Estimate(text string) time.Duration
}

// SyllableEstimator derives speaking time from a syllable count and a
// speaking rate in syllables per second.
type SyllableEstimator struct {
	rate float64
}

// NewSyllableEstimator creates an estimator for the given speaking rate.
// Non-positive rates fall back to the default pace.
func NewSyllableEstimator(rate float64) *SyllableEstimator {
	if rate <= 0 {
		rate = defaultSyllablesPerSecond
	}
	return &SyllableEstimator{rate: rate}
}

// Estimate returns the approximate speaking time for text.
func (e *SyllableEstimator) Estimate(text string) time.Duration {
	syllables := countSyllables(text)
	if syllables == 0 {
		return 0
	}
	return time.Duration(float64(syllables) / e.rate * float64(time.Second))
}

// countSyllables counts one syllable per CJK character and one per vowel
// group in alphabetic words. Words without vowels still count as one.
func countSyllables(text string) int {
	total := 0
	var word []rune

	flush := func() {
		if len(word) > 0 {
			total += syllablesInWord(word)
			word = word[:0]
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			total++
		case unicode.IsLetter(r):
			word = append(word, r)
		default:
			flush()
		}
	}
	flush()

	return total
}

func syllablesInWord(word []rune) int {
	groups := 0
	inGroup := false

	for _, r := range word {
		if isVowel(r) {
			if !inGroup {
				groups++
			}
			inGroup = true
		} else {
			inGroup = false
		}
	}

	if groups == 0 {
		return 1
	}
	return groups
}

func isVowel(r rune) bool {
	return strings.ContainsRune(vowels, unicode.ToLower(r))
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

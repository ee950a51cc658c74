package lookup

import (
	"unicode"

	"bookshelf/internal/isbn"
)

// Scoring weights. They encode a preference for Russian-language records and
// are pinned by tests, not derived from anything.
const (
	WeightLanguageRU      = 4
	WeightCyrillicTitle   = 3
	WeightCyrillicAuthors = 2
	WeightCover           = 1
)

// registrationLanguages maps an ISBN-13 prefix (978 + registration group) to
// the language assumed when no source reports one.
var registrationLanguages = map[string]string{
	"9782": "fr",
	"9783": "de",
	"9784": "ja",
	"9785": "ru",
	"9787": "zh",
}

// Score ranks a candidate. Higher is better.
func Score(c Candidate) int {
	score := 0
	if c.Language == "ru" {
		score += WeightLanguageRU
	}
	if hasCyrillic(c.Title) {
		score += WeightCyrillicTitle
	}
	if hasCyrillic(c.Authors) {
		score += WeightCyrillicAuthors
	}
	if c.CoverURL != "" {
		score += WeightCover
	}
	return score
}

// Pick reduces the candidates collected for isbn13 to a single record. The
// highest score wins and ties keep the earliest candidate. ok is false when
// there is nothing to pick from.
func Pick(isbn13 string, candidates []Candidate) (m Metadata, ok bool) {
	if len(candidates) == 0 {
		return Metadata{}, false
	}

	best, bestScore := 0, Score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := Score(candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}

	winner := candidates[best]
	if winner.CoverURL == "" {
		for i, c := range candidates {
			if i != best && c.CoverURL != "" {
				winner.CoverURL = c.CoverURL
				break
			}
		}
	}
	if winner.Language == "" {
		winner.Language = LanguageForISBN(isbn13)
	}
	winner.ISBN13 = isbn13
	if winner.ISBN10 == "" {
		if v, ok := isbn.To10(isbn13); ok {
			winner.ISBN10 = v
		}
	}
	return Metadata{Candidate: winner}, true
}

// LanguageForISBN guesses a language from the registration group of a
// canonical ISBN-13. It returns "" when the group says nothing useful.
func LanguageForISBN(isbn13 string) string {
	if len(isbn13) < 4 {
		return ""
	}
	return registrationLanguages[isbn13[:4]]
}

func hasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

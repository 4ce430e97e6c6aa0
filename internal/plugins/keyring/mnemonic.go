package keyring

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

// maxTypoDistance is the largest edit distance reported as a likely typo.
const maxTypoDistance = 2

//nolint:gochecknoglobals // compiled once
var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
	bulletListRegex   = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// NormalizeMnemonic lowercases the phrase, strips list numbering, bullets
// and commas, and collapses whitespace.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// ValidateMnemonic checks word count, words and checksum. The error
// carries a "did you mean" suggestion for misspelled words.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return huberr.WithDetails(huberr.ErrInvalidMnemonic, map[string]string{
			"words": strconv.Itoa(len(words)),
		})
	}
	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		err := huberr.WithDetails(huberr.ErrInvalidMnemonic, map[string]string{"reason": err.Error()})
		if hint := typoHint(words); hint != "" {
			err = huberr.WithSuggestion(err, hint)
		}
		return err
	}
	return nil
}

// suggestWord returns the closest BIP39 word to input, or "" when none is
// within maxTypoDistance.
func suggestWord(input string) string {
	minDist := math.MaxInt
	suggestion := ""
	for _, word := range bip39.GetWordList() {
		dist := levenshtein.ComputeDistance(input, word)
		if dist == 0 {
			return word
		}
		if dist < minDist {
			minDist, suggestion = dist, word
		}
	}
	if minDist <= maxTypoDistance {
		return suggestion
	}
	return ""
}

func typoHint(words []string) string {
	var hints []string
	for i, word := range words {
		if _, ok := bip39.GetWordIndex(word); ok {
			continue
		}
		hint := "word " + strconv.Itoa(i+1) + " '" + word + "'"
		if s := suggestWord(word); s != "" {
			hint += ": did you mean '" + s + "'?"
		} else {
			hint += " is not a BIP39 word"
		}
		hints = append(hints, hint)
	}
	return strings.Join(hints, "; ")
}

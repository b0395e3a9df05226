package textkey

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize turns a free-text title into a comparable key.
// Two titles refer to the same work iff their keys are identical.
//
// The pipeline, in order:
//  1. Unicode NFC composition
//  2. Lowercase
//  3. Collapse all whitespace variants to single spaces
//  4. Strip a leading track-number prefix ("01 - ", "3.", "12 ")
//  5. Strip trailing lyrics/transcript suffixes ("lyrics", "歌词", ".lrc" remnants)
//  6. Replace bracket characters (ASCII and fullwidth) with spaces
//  7. Strip remaining punctuation and separators
//  8. Collapse whitespace and trim
//
// Normalize is total: it never fails, and empty input yields the empty
// key, which matches nothing.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Unicode NFC normalization
	text = norm.NFC.String(text)

	// Lowercase
	text = strings.ToLower(text)

	// Collapse whitespace early so the prefix/suffix patterns see single spaces
	text = collapseWhitespace(text)

	// Strip leading track number ("01 - Song", "3. Song", "12 Song")
	text = stripTrackPrefix(text)

	// Strip lyrics-file suffixes ("song lyrics", "song.lrc", "歌名歌词")
	text = stripLyricsSuffix(text)

	// Brackets become spaces so "song (remix)" and "song remix" share a key
	text = replaceBrackets(text)

	// Remaining punctuation is dropped entirely
	text = stripPunctuation(text)

	// Final cleanup
	return collapseWhitespace(text)
}

// CompositeKey builds a collection-scoped track key. A composite key is
// unambiguous even when the bare track title exists in several unrelated
// collections.
func CompositeKey(collectionKey, trackKey string) string {
	if collectionKey == "" || trackKey == "" {
		return ""
	}
	return collectionKey + "|" + trackKey
}

// PlatformKey normalizes a platform identifier for link/embed grouping.
// The facebook key is folded into instagram: the two are presented as a
// single combined icon in the product.
func PlatformKey(platform string) string {
	key := strings.ToLower(strings.TrimSpace(norm.NFC.String(platform)))
	if key == "facebook" {
		return "instagram"
	}
	return key
}

var (
	// Leading digits followed by a separator: "01 - ", "01-", "3.", "12 "
	trackPrefixRe = regexp.MustCompile(`^\d{1,3}\s*[-.]\s*|^\d{1,3}\s+`)

	// Trailing markers meaning "this is the lyrics/transcript of the
	// title". The Latin words must stand alone at the end of the title;
	// the Chinese words attach directly, since titles carry no spaces
	// there. Also covers remnants of .lrc filenames.
	lyricsSuffixRe = regexp.MustCompile(`(^|\s)(lyrics?|lrc)\s*$|\s*(歌词|歌詞)\s*$|\.lrc$`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// bracketRunes maps every bracket variant, including fullwidth CJK forms,
// to a space.
var bracketRunes = map[rune]bool{
	'(': true, ')': true,
	'[': true, ']': true,
	'{': true, '}': true,
	'<': true, '>': true,
	'（': true, '）': true,
	'［': true, '］': true,
	'｛': true, '｝': true,
	'〈': true, '〉': true,
	'《': true, '》': true,
	'【': true, '】': true,
	'「': true, '」': true,
	'『': true, '』': true,
}

func stripTrackPrefix(s string) string {
	return strings.TrimSpace(trackPrefixRe.ReplaceAllString(s, ""))
}

func stripLyricsSuffix(s string) string {
	return strings.TrimSpace(lyricsSuffixRe.ReplaceAllString(s, ""))
}

func replaceBrackets(s string) string {
	return strings.Map(func(r rune) rune {
		if bracketRunes[r] {
			return ' '
		}
		return r
	}, s)
}

// stripPunctuation removes punctuation and separator characters.
// Letters, digits, marks and spaces survive; everything else is dropped.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == ' ' {
			return r
		}
		return -1
	}, s)
}

// collapseWhitespace replaces runs of whitespace with a single space.
// Unicode space variants (ideographic space, NBSP) collapse too.
func collapseWhitespace(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

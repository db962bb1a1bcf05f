package reconciliation

import (
	"regexp"
	"strings"
	"unicode"
)

// ParsedComment is the best-effort interpretation of a device-side
// free-text identity annotation.
type ParsedComment struct {
	Name         string
	Street       string
	StreetNumber string
}

// HasName reports whether a candidate subscriber name was extracted
func (p ParsedComment) HasName() bool {
	return p.Name != ""
}

// placeholderComments are device annotations that carry no subscriber
// information and must be treated as blank.
var placeholderComments = map[string]struct{}{
	"sincronizado do mikrotik": {},
	"sincronizado":             {},
}

// streetKeywords are the address prefixes recognized by the street branch
var streetKeywords = []string{"travessa", "avenida", "trav", "rua", "av"}

var streetNumberPattern = regexp.MustCompile(`(?i)\bn(\d+)\b`)

// ParseComment extracts a candidate subscriber name, street and street
// number from a device comment. The heuristic is inherently best-effort:
//
//   - the street number is an "n" followed by digits ("n255" -> "255")
//   - the name is the text before a "/" separator; with no separator it is
//     the text before the street-number token
//   - the street is the text between the separator and the number token,
//     or, with no separator, a recognized keyword prefix (rua, travessa,
//     avenida) and whatever follows it
//
// A blank or placeholder comment yields a zero value; callers fall back to
// the username and record a warning.
func ParseComment(comment string) ParsedComment {
	text := strings.TrimSpace(comment)
	if text == "" {
		return ParsedComment{}
	}
	if _, ok := placeholderComments[strings.ToLower(text)]; ok {
		return ParsedComment{}
	}

	var parsed ParsedComment

	// Street number: first n<digits> token
	numberToken := ""
	if m := streetNumberPattern.FindStringSubmatch(text); m != nil {
		numberToken = m[0]
		parsed.StreetNumber = m[1]
	}

	if sep := strings.Index(text, "/"); sep >= 0 {
		parsed.Name = TitleCase(strings.TrimSpace(text[:sep]))

		street := strings.TrimSpace(text[sep+1:])
		if numberToken != "" {
			street = strings.TrimSpace(strings.Replace(street, numberToken, "", 1))
		}
		parsed.Street = strings.TrimSpace(street)
		return parsed
	}

	// No separator: everything before the number token is the candidate name
	namePart := text
	if numberToken != "" {
		if i := strings.Index(text, numberToken); i >= 0 {
			namePart = text[:i]
		}
	}
	parsed.Name = TitleCase(strings.TrimSpace(namePart))

	// Street branch: keyword prefix match on the remaining text
	lower := strings.ToLower(namePart)
	for _, keyword := range streetKeywords {
		idx := strings.Index(lower, keyword)
		if idx < 0 {
			continue
		}
		// Keyword must start a word
		if idx > 0 && lower[idx-1] != ' ' {
			continue
		}
		parsed.Street = TitleCase(strings.TrimSpace(namePart[idx:]))
		break
	}

	return parsed
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest ("felipe achy" -> "Felipe Achy")
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	startOfWord := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			startOfWord = true
			b.WriteRune(r)
		case startOfWord:
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

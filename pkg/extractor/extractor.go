package extractor

import (
	"regexp"
	"strings"
)

// Extractor pulls contact entities and signal keywords out of plain text
type Extractor struct {
	emailRegex *regexp.Regexp
	phoneRegex *regexp.Regexp
}

// Entities are the contact details found in text, in first-seen order.
type Entities struct {
	Emails []string
	Phones []string
}

// New creates a new Extractor instance
func New() *Extractor {
	return &Extractor{
		emailRegex: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.(?:com|org|net|io|co|edu)\b`),
		phoneRegex: regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	}
}

// ExtractEntities finds emails and phone numbers in text
func (e *Extractor) ExtractEntities(text string) Entities {
	return Entities{
		Emails: e.ExtractEmails(text),
		Phones: e.ExtractPhones(text),
	}
}

// ExtractEmails finds all email addresses with a common top-level domain
func (e *Extractor) ExtractEmails(text string) []string {
	return uniqueStrings(e.emailRegex.FindAllString(text, -1))
}

// ExtractPhones finds North-American style phone numbers
func (e *Extractor) ExtractPhones(text string) []string {
	matches := e.phoneRegex.FindAllString(text, -1)
	cleaned := make([]string, 0, len(matches))
	for _, match := range matches {
		if m := strings.TrimSpace(match); m != "" {
			cleaned = append(cleaned, m)
		}
	}
	return uniqueStrings(cleaned)
}

// MatchSignals returns the keywords present in text, ignoring case, in the
// order they were given.
func MatchSignals(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

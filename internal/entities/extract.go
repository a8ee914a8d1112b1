package entities

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"recommendation-backend/internal/facts"
)

// DefaultLanguage tags entities when the caller gives none.
const DefaultLanguage = "ru"

var ErrInvalidLanguage = errors.New("invalid language tag")

// ParseLanguage canonicalizes a BCP 47 tag. An empty tag yields fallback.
func ParseLanguage(raw, fallback string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, raw)
	}
	return tag.String(), nil
}

// collector keeps the first occurrence of every normalized text across labels.
type collector struct {
	language string
	lower    cases.Caser
	fold     cases.Caser
	seen     map[string]struct{}
	out      Map
}

func newCollector(lang string) *collector {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return &collector{
		language: lang,
		lower:    cases.Lower(tag),
		fold:     cases.Fold(),
		seen:     make(map[string]struct{}),
		out:      Map{},
	}
}

func (c *collector) add(label, value string) {
	text := c.lower.String(strings.Join(strings.Fields(norm.NFC.String(value)), " "))
	if text == "" {
		return
	}
	key := c.fold.String(text)
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.out[label] = append(c.out[label], Entity{Label: label, Text: text, Language: c.language})
}

// Extract derives entities from structured facts. Fields are scanned in a fixed
// order and a text seen earlier under any label is not added again.
func Extract(f facts.Facts, lang string) Map {
	c := newCollector(lang)
	for _, s := range f.Skills {
		c.add(LabelSkill, s)
	}
	for _, p := range f.Projects {
		c.add(LabelProject, p.Title)
		for _, tech := range p.Technologies {
			c.add(LabelSkill, tech)
		}
	}
	for _, e := range f.Experience {
		c.add(LabelOrg, e.Company)
	}
	for _, e := range f.Education {
		c.add(LabelOrg, e.Institution)
	}
	for _, cert := range f.Certifications {
		c.add(LabelCertification, cert)
	}
	for _, a := range f.Achievements {
		c.add(LabelAchievement, a)
	}
	for _, p := range f.Publications {
		c.add(LabelAchievement, p.Title)
	}
	for _, r := range f.References {
		c.add(LabelPerson, r.Name)
	}
	c.add(LabelGPE, f.Location)
	return c.out
}

type phrase struct {
	label  string
	tokens []string
}

var phrases = []phrase{
	{LabelSkill, []string{"python"}},
	{LabelSkill, []string{"leadership"}},
	{LabelSkill, []string{"machine", "learning"}},
	{LabelCertification, []string{"aws", "certified"}},
	{LabelCertification, []string{"pmp"}},
	{LabelCertification, []string{"cfa"}},
	{LabelProject, []string{"chatbot"}},
	{LabelProject, []string{"e-commerce", "website"}},
	{LabelAchievement, []string{"published", "paper"}},
}

// "Heading: value" lines; the value ends at a period or newline.
var sectionRe = regexp.MustCompile(`(?i)\b(experience|company|employer|skills|certifications|location)\s*:\s*([^.\n]+)`)

var sectionLabels = map[string]string{
	"experience":     LabelOrg,
	"company":        LabelOrg,
	"employer":       LabelOrg,
	"skills":         LabelSkill,
	"certifications": LabelCertification,
	"location":       LabelGPE,
}

// FromText derives entities from raw resume text without the reasoning model.
// Labeled sections are read first, then known phrases in document order.
func FromText(text, lang string) Map {
	c := newCollector(lang)

	for _, m := range sectionRe.FindAllStringSubmatch(text, -1) {
		label := sectionLabels[strings.ToLower(m[1])]
		if label == LabelGPE {
			c.add(label, m[2])
			continue
		}
		for _, item := range strings.FieldsFunc(m[2], func(r rune) bool { return r == ',' || r == ';' }) {
			c.add(label, item)
		}
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for i := range tokens {
		for _, p := range phrases {
			if hasPrefix(tokens[i:], p.tokens) {
				c.add(p.label, strings.Join(p.tokens, " "))
			}
		}
	}
	return c.out
}

func hasPrefix(tokens, prefix []string) bool {
	if len(tokens) < len(prefix) {
		return false
	}
	for i, t := range prefix {
		if tokens[i] != t {
			return false
		}
	}
	return true
}

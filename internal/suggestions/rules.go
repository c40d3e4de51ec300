package suggestions

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"writingway/internal/agegroup"

	"github.com/orsinium-labs/stopwords"
)

var (
	wordRe          = regexp.MustCompile(`\b\w+\b`)
	sentenceEndRe   = regexp.MustCompile(`[.!?]+`)
	basicAdjRe      = regexp.MustCompile(`\b(?:big|small|good|bad|nice|pretty|ugly|fast|slow)\b`)
	simpleWordRe    = regexp.MustCompile(`\b(?:said|went|got|put|came|good|nice|fun)\b`)
	emotionWordRe   = regexp.MustCompile(`\b(?:happy|sad|excited|angry|scared|surprised|worried|proud|amazed|confused|delighted)\b`)
	dialogueRe      = regexp.MustCompile(`["'].*?["']`)
	sensoryWordRe   = regexp.MustCompile(`\b(?:saw|heard|felt|smelled|tasted|bright|loud|soft|rough|sweet|sour)\b`)
	englishStopword = stopwords.MustGet("en")
)

// rules - проверки без обращения к AI.
type rules struct {
	now func() time.Time
}

func (r rules) id(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, r.now().Unix())
}

func inLast(recent []string, n int, kind string) bool {
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	for _, t := range recent {
		if t == kind {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceEndRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func textLen(s string) int { return utf8.RuneCountInString(s) }

// firstRepeatedWord ищет первое значимое слово длиннее 3 символов, встретившееся больше двух раз.
func firstRepeatedWord(text string) string {
	counts := make(map[string]int)
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(w) <= 3 || englishStopword.Contains(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	for _, w := range order {
		if counts[w] > 2 {
			return w
		}
	}
	return ""
}

func (r rules) vocabulary(text string, g agegroup.Group, recent []string) []Item {
	if inLast(recent, 2, TypeVocabulary) {
		return nil
	}
	tpl := templatesFor(TypeVocabulary, g)
	lower := strings.ToLower(text)
	n := textLen(text)
	var out []Item

	if w := firstRepeatedWord(text); w != "" && n > 50 && len(tpl) > 0 {
		out = append(out, Item{
			ID:       r.id("vocab_repeat"),
			Type:     TypeVocabulary,
			Priority: 2,
			Message:  fmt.Sprintf("You used '%s' several times. %s", w, tpl[0]),
			Category: CategoryEnhancement,
		})
	}

	adjectives := len(basicAdjRe.FindAllString(lower, -1))
	if float64(adjectives) < float64(len(strings.Fields(text)))*0.1 && n > 30 && len(tpl) > 1 {
		out = append(out, Item{
			ID:       r.id("desc"),
			Type:     TypeVocabulary,
			Priority: 3,
			Message:  tpl[1],
			Category: CategoryEnhancement,
		})
	}

	if len(simpleWordRe.FindAllString(lower, -1)) > 3 && n > 60 && len(tpl) > 2 {
		out = append(out, Item{
			ID:       r.id("simple"),
			Type:     TypeVocabulary,
			Priority: 3,
			Message:  tpl[2],
			Category: CategoryEnhancement,
		})
	}
	return out
}

func (r rules) structure(text string, g agegroup.Group, recent []string) []Item {
	if inLast(recent, 2, TypeStructure) {
		return nil
	}
	tpl := templatesFor(TypeStructure, g)
	sentences := splitSentences(text)
	var out []Item

	if len(sentences) > 1 && len(tpl) > 0 {
		seen := make(map[string]int)
		starts := make([]string, 0, len(sentences))
		for _, s := range sentences {
			start := strings.ToLower(strings.Fields(s)[0])
			starts = append(starts, start)
			seen[start]++
		}
		for _, start := range starts {
			if seen[start] > 1 {
				out = append(out, Item{
					ID:       r.id("struct_variety"),
					Type:     TypeStructure,
					Priority: 2,
					Message:  fmt.Sprintf("You started several sentences with '%s'. %s", start, tpl[0]),
					Category: CategoryEnhancement,
				})
				break
			}
		}
	}

	if textLen(text) > 100 && len(tpl) > 1 {
		for _, s := range sentences {
			if len(strings.Fields(s)) > 20 {
				out = append(out, Item{
					ID:       r.id("struct_length"),
					Type:     TypeStructure,
					Priority: 3,
					Message:  tpl[1],
					Category: CategoryEnhancement,
				})
				break
			}
		}
	}
	return out
}

func (r rules) creativity(text string, g agegroup.Group, recent []string) []Item {
	if inLast(recent, 2, TypeCreativity) {
		return nil
	}
	tpl := templatesFor(TypeCreativity, g)
	lower := strings.ToLower(text)
	n := textLen(text)
	var out []Item

	switch {
	case !emotionWordRe.MatchString(lower) && n > 40:
		if len(tpl) > 0 {
			out = append(out, Item{
				ID:       r.id("emotion"),
				Type:     TypeCreativity,
				Priority: 3,
				Message:  tpl[0],
				Category: CategoryInspiration,
			})
		}
	case !dialogueRe.MatchString(text) && n > 80:
		if len(tpl) > 1 {
			out = append(out, Item{
				ID:       r.id("dialogue"),
				Type:     TypeCreativity,
				Priority: 4,
				Message:  tpl[1],
				Category: CategoryInspiration,
			})
		}
	}

	if len(sensoryWordRe.FindAllString(lower, -1)) < 2 && n > 60 && len(tpl) > 2 {
		out = append(out, Item{
			ID:       r.id("sensory"),
			Type:     TypeCreativity,
			Priority: 4,
			Message:  tpl[2],
			Category: CategoryInspiration,
		})
	}
	return out
}

// grammar не подавляется историей показов.
func (r rules) grammar(text string) []Item {
	for _, s := range sentenceEndRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(s)
		if !unicode.IsUpper(first) {
			sample := s
			if rs := []rune(s); len(rs) > 10 {
				sample = string(rs[:10])
			}
			return []Item{{
				ID:       r.id("cap"),
				Type:     TypeGrammar,
				Priority: 1,
				Message:  fmt.Sprintf("Remember to start sentences with a capital letter (like '%s...')", sample),
				Category: CategoryCorrection,
			}}
		}
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") && !strings.HasSuffix(trimmed, "?") && textLen(text) > 20 {
		return []Item{{
			ID:       r.id("period"),
			Type:     TypeGrammar,
			Priority: 1,
			Message:  "Don't forget to end your sentence with a period, exclamation mark, or question mark",
			Category: CategoryCorrection,
		}}
	}

	if strings.Contains(text, "  ") {
		return []Item{{
			ID:       r.id("spaces"),
			Type:     TypeGrammar,
			Priority: 2,
			Message:  "Try using just one space between words",
			Category: CategoryCorrection,
		}}
	}
	return nil
}

func (r rules) all(text string, g agegroup.Group, recent []string) []Item {
	var out []Item
	out = append(out, r.vocabulary(text, g, recent)...)
	out = append(out, r.structure(text, g, recent)...)
	out = append(out, r.creativity(text, g, recent)...)
	out = append(out, r.grammar(text)...)
	return out
}

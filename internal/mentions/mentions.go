// Package mentions находит в тексте документа упоминания записей компендиума
// по их названиям и псевдонимам.
package mentions

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
	"github.com/google/uuid"
)

// Entry - запись компендиума, которую нужно искать.
type Entry struct {
	ID      uuid.UUID
	Title   string
	Aliases []string
}

// Mention - найденные упоминания одной записи. FirstOffset - смещение в
// символах от начала текста без HTML-разметки.
type Mention struct {
	EntryID     uuid.UUID `json:"entry_id"`
	Title       string    `json:"title"`
	Count       int       `json:"count"`
	FirstOffset int       `json:"first_offset"`
}

// Scanner - автомат Aho-Corasick по всем поверхностным формам записей.
type Scanner struct {
	ac           *ahocorasick.Automaton
	patterns     []string
	patternToIDs [][]int // индекс шаблона -> индексы записей
	entries      []Entry
}

// NewScanner строит автомат. Пустой список записей даёт сканер без совпадений.
func NewScanner(entries []Entry) (*Scanner, error) {
	s := &Scanner{entries: entries}
	index := make(map[string]int)

	for i, e := range entries {
		surfaces := append([]string{e.Title}, e.Aliases...)
		for _, surface := range surfaces {
			key := canonicalize(surface)
			if key == "" {
				continue
			}
			if idx, ok := index[key]; ok {
				s.patternToIDs[idx] = appendUnique(s.patternToIDs[idx], i)
				continue
			}
			index[key] = len(s.patterns)
			s.patterns = append(s.patterns, key)
			s.patternToIDs = append(s.patternToIDs, []int{i})
		}
	}
	if len(s.patterns) == 0 {
		return s, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(s.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build mention automaton: %w", err)
	}
	s.ac = automaton
	return s, nil
}

func appendUnique(v []int, x int) []int {
	for _, y := range v {
		if y == x {
			return v
		}
	}
	return append(v, x)
}

type span struct {
	start, end int // байтовые смещения в канонизированном тексте
	pattern    int
}

// Scan возвращает упоминания в порядке первого появления.
// Учитываются только совпадения по границам слов; из пересекающихся
// совпадений остаётся самое левое и самое длинное.
func (s *Scanner) Scan(content string) []Mention {
	if s.ac == nil {
		return []Mention{}
	}
	plain := StripHTML(content)
	canon, offsets := canonicalizeWithOffsets(plain)
	haystack := []byte(canon)

	var spans []span
	for _, m := range s.ac.FindAllOverlapping(haystack) {
		if !isBoundary(haystack, m.Start-1) || !isBoundary(haystack, m.End) {
			continue
		}
		spans = append(spans, span{start: m.Start, end: m.End, pattern: m.PatternID})
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	byEntry := make(map[int]*Mention)
	var order []int
	lastEnd := -1
	for _, sp := range spans {
		if sp.start < lastEnd {
			continue
		}
		lastEnd = sp.end
		for _, ei := range s.patternToIDs[sp.pattern] {
			m, ok := byEntry[ei]
			if !ok {
				e := s.entries[ei]
				m = &Mention{EntryID: e.ID, Title: e.Title, FirstOffset: offsets[sp.start]}
				byEntry[ei] = m
				order = append(order, ei)
			}
			m.Count++
		}
	}

	out := make([]Mention, 0, len(order))
	for _, ei := range order {
		out = append(out, *byEntry[ei])
	}
	return out
}

// isBoundary: позиция за пределами текста или пробел в канонизированном тексте.
func isBoundary(b []byte, i int) bool {
	return i < 0 || i >= len(b) || b[i] == ' '
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '-'
}

func normalizeRune(r rune) rune {
	r = unicode.ToLower(r)
	switch r {
	case '’', '‘':
		return '\''
	case '–', '—':
		return '-'
	}
	return r
}

// canonicalize приводит строку к нижнему регистру и схлопывает разделители в один пробел.
func canonicalize(s string) string {
	c, _ := canonicalizeWithOffsets(s)
	return c
}

// canonicalizeWithOffsets дополнительно возвращает для каждого байта результата
// номер символа исходной строки.
func canonicalizeWithOffsets(s string) (string, []int) {
	var out strings.Builder
	out.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	lastWasSpace := true
	runeIdx := 0
	for _, ch := range s {
		c := normalizeRune(ch)
		if unicode.IsLetter(c) || unicode.IsDigit(c) || isJoiner(c) {
			out.WriteRune(c)
			for i := 0; i < utf8.RuneLen(c); i++ {
				offsets = append(offsets, runeIdx)
			}
			lastWasSpace = false
		} else if !lastWasSpace {
			out.WriteByte(' ')
			offsets = append(offsets, runeIdx)
			lastWasSpace = true
		}
		runeIdx++
	}

	res := out.String()
	if strings.HasSuffix(res, " ") {
		res = res[:len(res)-1]
		offsets = offsets[:len(offsets)-1]
	}
	offsets = append(offsets, runeIdx)
	return res, offsets
}

var (
	tagRe        = regexp.MustCompile(`(?s)<[^>]*>`)
	blockTagRe   = regexp.MustCompile(`(?i)</?(p|div|br|h[1-6]|li|ul|ol|blockquote)[^>]*>`)
	multiSpaceRe = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\s*\n\s*`)
)

// StripHTML убирает разметку редактора и раскрывает HTML-сущности.
func StripHTML(s string) string {
	if !strings.ContainsRune(s, '<') && !strings.ContainsRune(s, '&') {
		return s
	}
	s = blockTagRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = newlineRunRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

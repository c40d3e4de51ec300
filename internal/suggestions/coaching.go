package suggestions

import (
	"fmt"
	"strings"
)

var (
	descriptiveWords = wordSet("big", "small", "beautiful", "scary", "happy", "sad", "bright", "dark", "loud", "quiet", "soft", "hard", "fast", "slow")
	feelingWords     = wordSet("happy", "sad", "excited", "angry", "scared", "surprised", "worried", "proud", "confused", "amazed")
	actionWords      = wordSet("went", "ran", "walked", "jumped", "said", "looked", "found", "saw", "heard")
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func countIn(words []string, set map[string]struct{}) int {
	n := 0
	for _, w := range words {
		if _, ok := set[strings.ToLower(w)]; ok {
			n++
		}
	}
	return n
}

// coachingMessage - общий совет по содержанию текста, когда ни AI, ни правила
// ничего не предложили. Пустая строка - совета нет.
func coachingMessage(text string, p coachingProfile, recent []string) string {
	words := strings.Fields(text)
	sentences := splitSentences(text)
	verySimple := p.complexity == "very simple"

	if len(words) < 5 {
		return fmt.Sprintf("Great start! Try adding more details to make your story %s.", p.encouragement)
	}

	if len(sentences) == 1 && len(words) > 10 {
		switch p.complexity {
		case "very simple":
			return "You wrote a nice long sentence! What happens next in your story?"
		case "simple":
			return "Good sentence! Try adding another sentence to continue your story."
		default:
			return "Consider breaking this into two sentences for better flow."
		}
	}

	if w := firstRepeatedWord(text); w != "" && !inLast(recent, 2, TypeVocabulary) {
		if verySimple {
			return fmt.Sprintf("You used '%s' a few times. Can you think of another word?", w)
		}
		return fmt.Sprintf("Try using different words instead of repeating '%s' - it makes writing more interesting!", w)
	}

	if countIn(words, descriptiveWords) == 0 && len(words) > 15 && !inLast(recent, 2, TypeCreativity) {
		if verySimple {
			return "Try adding words that tell us how things look or feel, like 'big' or 'pretty'!"
		}
		return "Add descriptive words to help readers picture your story better."
	}

	if !strings.Contains(text, `"`) && len(words) > 20 {
		if p.complexity == "simple" || p.complexity == "intermediate" {
			return "Your story could come alive with dialogue! Try adding what someone says."
		}
		return "Consider adding dialogue to develop your characters and advance the plot."
	}

	if countIn(words, feelingWords) == 0 && len(words) > 25 {
		if verySimple {
			return "How do the people in your story feel? Try adding feeling words!"
		}
		return "Consider exploring your characters' emotions to create deeper connections."
	}

	if len(sentences) > 2 && !inLast(recent, 2, TypeStructure) {
		distinct := make(map[string]struct{})
		for _, s := range sentences {
			distinct[strings.ToLower(strings.Fields(s)[0])] = struct{}{}
		}
		if float64(len(distinct)) < float64(len(sentences))*0.7 {
			return "Try starting your sentences in different ways to make your writing flow better."
		}
	}

	if countIn(words, actionWords) < 2 && len(words) > 30 {
		return "Try adding more action words to show what your characters are doing."
	}

	switch {
	case len(words) > 50:
		return "You're doing great! Your story is developing well. Keep adding details!"
	case len(words) > 30:
		return "Good progress! Try adding more details about what you see, hear, or feel."
	}
	return ""
}

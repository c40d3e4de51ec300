package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Тип помощи для MockGenerator.Assist и сервиса ассистента.
const (
	AssistImprove   = "improve"
	AssistContinue  = "continue"
	AssistSummarize = "summarize"
	AssistAnalyze   = "analyze"
)

var mockResponses = map[string][]string{
	AssistImprove: {
		"This is an improved version of the text with more fluent language and clearer expression.",
		"I have optimized your text to make it more attractive and readable.",
		"After polishing, this text is now more vivid and interesting.",
	},
	AssistContinue: {
		"Next, the story takes an unexpected turn...",
		"Suddenly, a mysterious figure appears in the scene...",
		"As time passes, the protagonist begins to realize that things are not as simple as they appear on the surface...",
	},
	AssistAnalyze: {
		"**Structure Issues**: Lack of effective transitions between paragraphs, suggest adding connecting words. **Language Issues**: Some sentences are too long, affecting reading fluency. **Improvement Suggestions**: Break down long sentences and add logical connections between paragraphs.",
		"**Content Depth**: Viewpoints are rather superficial, lacking specific evidence support. **Language Expression**: Word repetition is frequent. **Improvement Suggestions**: Add specific cases and use synonyms to replace repeated vocabulary.",
		"**Reader Experience**: Too many technical terms may affect understanding. **Text Structure**: Lacks subheadings or paragraphing. **Improvement Suggestions**: Add term explanations and use subheadings to improve readability.",
		"**Language Issues**: Monotonous sentence patterns, mostly declarative sentences. **Content Issues**: Lacks comparison and analysis. **Improvement Suggestions**: Use interrogative and exclamatory sentences for variety, add pros and cons analysis.",
	},
}

var (
	chatGeneral = []string{
		"As your AI writing assistant, I'm happy to help you improve your creative work.",
		"This is a very interesting idea! Let's explore how to develop it into a complete story.",
		"I suggest you could start with the character's inner conflict, which often creates compelling plots.",
		"Consider adding some unexpected plot twists, which will make your story more engaging to readers.",
		"Your writing style is unique. I suggest maintaining this personal characteristic while paying attention to plot pacing.",
	}
	chatCharacter = []string{
		"Character development is the core of a story. I suggest giving your character a clear goal and obstacles.",
		"Consider adding some unique traits or habits to your character, which will make them more three-dimensional.",
		"Character backstories often provide rich material for plot development.",
	}
	chatBeginning = []string{
		"A good beginning should immediately grab the reader's attention. You can start with an engaging scene.",
		"Consider starting with dialogue or action, which is more engaging than pure description.",
		"The beginning can set up a small suspense to make readers want to continue reading.",
	}

	analyzeGeneralSuggestions = []string{
		"Check for grammar errors or typos",
		"Ensure each paragraph has a clear central idea",
		"Avoid using too much passive voice",
		"Add specific examples to support viewpoints",
		"Check if sentence length is appropriate, avoid too long or too short",
		"Ensure logical coherence with appropriate transitions between paragraphs",
	}
	improveSuggestions = []string{
		"Use more precise verbs to replace generic verbs",
		"Avoid repeating the same vocabulary",
		"Try using different sentence structures",
		"Pay attention to language rhythm and cadence",
		"Remove unnecessary modifiers",
	}
)

const mockDefaultResult = "I have analyzed your text, here are my suggestions..."

var (
	sentenceSplitRe = regexp.MustCompile(`[。！？.!?]`)
	mockWordRe      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// MockGenerator - локальный детерминированный генератор. Выбор ответа зависит
// только от входного текста, поэтому одинаковый запрос даёт одинаковый ответ.
type MockGenerator struct{}

// NewMockGenerator создает mock-генератор.
func NewMockGenerator() *MockGenerator { return &MockGenerator{} }

func (m *MockGenerator) Name() string { return ProviderMock }

func pick(options []string, seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return options[int(h.Sum32()%uint32(len(options)))]
}

// Chat подбирает ответ по ключевым словам сообщения.
func (m *MockGenerator) Chat(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "story") || strings.Contains(lower, "plot"):
		return pick(chatGeneral, message)
	case strings.Contains(lower, "character") || strings.Contains(lower, "protagonist"):
		return pick(chatCharacter, message)
	case strings.Contains(lower, "beginning") || strings.Contains(lower, "start"):
		return pick(chatBeginning, message)
	default:
		return pick(chatGeneral, message)
	}
}

// Assist возвращает результат и список советов для типа помощи.
func (m *MockGenerator) Assist(text, assistType string) (string, []string) {
	var result string
	switch {
	case assistType == AssistAnalyze:
		if issues := AnalyzeTextIssues(text); len(issues) > 0 {
			var b strings.Builder
			b.WriteString("**Issues Found:**\n")
			for i, issue := range issues {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString("• " + issue)
			}
			b.WriteString("\n\n**Overall Assessment:** The text has some areas for improvement. Please make targeted modifications based on the issues above.")
			result = b.String()
		} else {
			result = "**Analysis Result:** The text is of good overall quality with clear structure and fluent expression. Consider further improvement in detail description and argument depth."
		}
	case len(mockResponses[assistType]) > 0:
		result = pick(mockResponses[assistType], text)
	default:
		result = mockDefaultResult
	}

	var suggestions []string
	switch assistType {
	case AssistAnalyze:
		n := utf8.RuneCountInString(text)
		if n < 50 {
			suggestions = append(suggestions,
				"Text is too short, suggest expanding content depth",
				"Add specific detail descriptions")
		} else if n > 500 {
			suggestions = append(suggestions,
				"Text is long, check for redundant content",
				"Consider using subheadings for paragraphing")
		}
		suggestions = append(suggestions, analyzeGeneralSuggestions...)
	case AssistImprove:
		suggestions = append(suggestions, improveSuggestions...)
	default:
		suggestions = []string{}
	}
	return result, suggestions
}

// AnalyzeTextIssues - эвристический разбор текста: длина, длина предложений,
// повторы слов, абзацы и запятые.
func AnalyzeTextIssues(text string) []string {
	var issues []string
	n := utf8.RuneCountInString(text)

	if n < 50 {
		issues = append(issues, "Text is too short, content is insufficient")
	} else if n > 1000 {
		issues = append(issues, "Text is too long, suggest paragraphing or simplification")
	}

	var sentences []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 0 {
		total := 0
		for _, s := range sentences {
			total += utf8.RuneCountInString(s)
		}
		avg := float64(total) / float64(len(sentences))
		if avg > 50 {
			issues = append(issues, "Average sentence length is too long, affecting reading fluency")
		} else if avg < 10 {
			issues = append(issues, "Sentences are too short, expression may be incomplete")
		}
	}

	words := mockWordRe.FindAllString(text, -1)
	if len(words) > 10 {
		freq := make(map[string]int)
		var order []string
		for _, w := range words {
			if utf8.RuneCountInString(w) <= 1 {
				continue
			}
			w = strings.ToLower(w)
			if freq[w] == 0 {
				order = append(order, w)
			}
			freq[w]++
		}
		var repeated []string
		for _, w := range order {
			if freq[w] > 3 {
				repeated = append(repeated, w)
			}
		}
		if len(repeated) > 0 {
			if len(repeated) > 3 {
				repeated = repeated[:3]
			}
			issues = append(issues, "Excessive word repetition: "+strings.Join(repeated, ", "))
		}
	}

	paragraphs := 0
	for _, p := range strings.Split(text, "\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	if paragraphs == 1 && n > 200 {
		issues = append(issues, "Lack of paragraph separation, suggest paragraphing to improve readability")
	}

	commas := strings.Count(text, ",") + strings.Count(text, "，")
	periods := strings.Count(text, ".") + strings.Count(text, "。")
	if commas > periods*2 {
		issues = append(issues, "Excessive comma usage, suggest appropriate use of periods")
	}
	return issues
}

func (m *MockGenerator) respond(req Request) string {
	text := req.LastUserMessage()
	switch req.Task {
	case TaskImprove:
		r, _ := m.Assist(text, AssistImprove)
		return r
	case TaskContinue:
		r, _ := m.Assist(text, AssistContinue)
		return r
	case TaskSummarize:
		r, _ := m.Assist(text, AssistSummarize)
		return r
	case TaskAnalysis:
		r, _ := m.Assist(text, AssistAnalyze)
		return r
	default:
		return m.Chat(text)
	}
}

// Generate отвечает сразу, без сети.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	return Response{Text: m.respond(req), Provider: ProviderMock, Model: ProviderMock, Fallback: true}, nil
}

// GenerateStream отдаёт весь ответ одним фрагментом.
func (m *MockGenerator) GenerateStream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	resp, _ := m.Generate(ctx, req)
	if onChunk != nil {
		if err := onChunk(resp.Text); err != nil {
			return resp, fmt.Errorf("mock stream handler: %w", err)
		}
	}
	return resp, nil
}

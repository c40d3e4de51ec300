// Package agegroup описывает возрастные группы авторов и подбирает под них тон ассистента.
package agegroup

import (
	"strings"
	"time"
)

// Group - идентификатор возрастной группы.
type Group string

const (
	EarlyYears     Group = "early_years"
	LowerPrimary   Group = "lower_primary"
	UpperPrimary   Group = "upper_primary"
	LowerSecondary Group = "lower_secondary"
	UpperSecondary Group = "upper_secondary"
)

// Default - группа, которая используется для неизвестных значений.
const Default = UpperPrimary

// Config - настройки ассистента для группы.
type Config struct {
	Group              Group    `json:"value"`
	Name               string   `json:"name"`
	MinAge             int      `json:"min_age"`
	MaxAge             int      `json:"max_age"`
	LanguageLevel      string   `json:"language_level"`
	MaxSuggestions     int      `json:"max_suggestions"`
	FocusAreas         []string `json:"focus_areas"`
	EncouragementStyle string   `json:"encouragement_style"`
	PromptPrefix       string   `json:"-"`
	SuggestionTypes    []string `json:"suggestion_types"`
	AvoidTopics        []string `json:"avoid_topics"`
	ExamplePrompts     []string `json:"example_prompts"`
}

// Info - краткое описание группы для выпадающих списков.
type Info struct {
	Value    Group  `json:"value"`
	Name     string `json:"name"`
	AgeRange [2]int `json:"age_range"`
}

// order фиксирует порядок групп: при пересечении диапазонов (12 лет) побеждает первая.
var order = []Group{EarlyYears, LowerPrimary, UpperPrimary, LowerSecondary, UpperSecondary}

var configs = map[Group]Config{
	EarlyYears: {
		Group:              EarlyYears,
		Name:               "Early Years (Ages 3-5, Preschool/Prep)",
		MinAge:             3,
		MaxAge:             5,
		LanguageLevel:      "very_simple",
		MaxSuggestions:     3,
		FocusAreas:         []string{"Basic vocabulary", "Simple sentences", "Picture-story connection"},
		EncouragementStyle: "Very encouraging and praising",
		PromptPrefix:       "You are helping a 3-5 year old child in preschool/prep learn to write. Use simple, encouraging language with picture-story connections, ",
		SuggestionTypes:    []string{"Vocabulary suggestions", "Sentence improvement", "Imagination inspiration"},
		AvoidTopics:        []string{"Complex grammar", "Advanced vocabulary", "Critical feedback"},
		ExamplePrompts: []string{
			"That's a wonderful word! Can you think of other similar words?",
			"Your imagination is amazing! Can you tell me more about this story?",
			"This sentence is great! Let's make it even more fun together!",
		},
	},
	LowerPrimary: {
		Group:              LowerPrimary,
		Name:               "Lower Primary (Ages 6-9, Year 1-3)",
		MinAge:             6,
		MaxAge:             9,
		LanguageLevel:      "simple",
		MaxSuggestions:     4,
		FocusAreas:         []string{"Reading foundation", "Short narratives", "Daily life themes", "Basic sentence structure"},
		EncouragementStyle: "Positive encouragement",
		PromptPrefix:       "You are helping a 6-9 year old student in Year 1-3 improve their writing. Focus on building reading skills and short stories about daily life, ",
		SuggestionTypes:    []string{"Grammar correction", "Vocabulary replacement", "Sentence expansion", "Story development"},
		AvoidTopics:        []string{"Complex rhetoric", "Deep analysis"},
		ExamplePrompts: []string{
			"You could try using this word instead - it will make your sentence more vivid!",
			"You could add an adjective here to help readers picture the scene better.",
			"Your story beginning is interesting! What happens next?",
		},
	},
	UpperPrimary: {
		Group:              UpperPrimary,
		Name:               "Upper Primary (Ages 10-12, Year 4-6)",
		MinAge:             10,
		MaxAge:             12,
		LanguageLevel:      "intermediate",
		MaxSuggestions:     5,
		FocusAreas:         []string{"Complex plots", "Character interactions", "Chapter stories", "Adventure themes"},
		EncouragementStyle: "Constructive encouragement",
		PromptPrefix:       "You are helping a 10-12 year old student in Year 4-6 improve their writing. Focus on complex plots and character development, ",
		SuggestionTypes:    []string{"Plot development", "Character building", "Chapter structure", "Adventure elements"},
		AvoidTopics:        []string{"Overly complex literary theory"},
		ExamplePrompts: []string{
			"This character interaction is interesting! You could develop their relationship further.",
			"Your adventure plot is exciting! You could add more details about the setting.",
			"The chapter structure works well - consider adding a cliffhanger at the end.",
		},
	},
	LowerSecondary: {
		Group:              LowerSecondary,
		Name:               "Lower Secondary (Ages 12-15, Year 7-9)",
		MinAge:             12,
		MaxAge:             15,
		LanguageLevel:      "intermediate_advanced",
		MaxSuggestions:     6,
		FocusAreas:         []string{"Critical thinking", "Long narratives", "Coming-of-age themes", "Social issues"},
		EncouragementStyle: "Professional guidance",
		PromptPrefix:       "You are helping a 12-15 year old student in Year 7-9 improve their writing. Focus on developing critical thinking and exploring social themes, ",
		SuggestionTypes:    []string{"Critical analysis", "Narrative structure", "Theme development", "Social awareness"},
		AvoidTopics:        []string{"Overly academic content"},
		ExamplePrompts: []string{
			"Your perspective on this social issue is thoughtful! You could explore different viewpoints.",
			"This coming-of-age theme is well-developed. Consider adding more emotional depth.",
			"Your critical thinking shows maturity. You could support your ideas with more examples.",
		},
	},
	UpperSecondary: {
		Group:              UpperSecondary,
		Name:               "Upper Secondary (Ages 16-18, Year 10-12)",
		MinAge:             16,
		MaxAge:             18,
		LanguageLevel:      "advanced",
		MaxSuggestions:     7,
		FocusAreas:         []string{"Mature reading comprehension", "Advanced writing skills", "Youth themes", "Philosophical concepts"},
		EncouragementStyle: "Inspirational guidance",
		PromptPrefix:       "You are helping a 16-18 year old student in Year 10-12 improve their writing. Focus on mature themes and advanced writing techniques, ",
		SuggestionTypes:    []string{"Advanced analysis", "Personal style", "Philosophical exploration", "Complex narratives"},
		AvoidTopics:        []string{},
		ExamplePrompts: []string{
			"Your exploration of this philosophical concept is sophisticated! You could develop it further.",
			"Your writing shows mature understanding. Consider exploring different narrative perspectives.",
			"You've handled complex themes well - this shows your advanced writing ability.",
		},
	},
}

// Parse разбирает строковое значение. ok=false для пустых и неизвестных значений.
func Parse(s string) (Group, bool) {
	g := Group(strings.ToLower(strings.TrimSpace(s)))
	_, ok := configs[g]
	return g, ok
}

// IsValid сообщает, известна ли группа.
func (g Group) IsValid() bool {
	_, ok := configs[g]
	return ok
}

// Normalize возвращает группу или Default, если значение неизвестно.
func Normalize(s string) Group {
	if g, ok := Parse(s); ok {
		return g
	}
	return Default
}

// Get возвращает настройки группы. Неизвестная группа получает настройки Default.
func Get(g Group) Config {
	if c, ok := configs[g]; ok {
		return c
	}
	return configs[Default]
}

// ByAge возвращает первую группу, в диапазон которой попадает возраст.
func ByAge(age int) (Group, bool) {
	for _, g := range order {
		c := configs[g]
		if age >= c.MinAge && age <= c.MaxAge {
			return g, true
		}
	}
	return "", false
}

// AgeAt считает полный возраст на дату now.
func AgeAt(birthDate, now time.Time) int {
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() || (now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// ByBirthDate определяет группу по дате рождения на текущий момент.
func ByBirthDate(birthDate time.Time) (Group, bool) {
	return ByAge(AgeAt(birthDate, time.Now()))
}

// All возвращает все группы в порядке возрастания возраста.
func All() []Info {
	out := make([]Info, 0, len(order))
	for _, g := range order {
		c := configs[g]
		out = append(out, Info{Value: g, Name: c.Name, AgeRange: [2]int{c.MinAge, c.MaxAge}})
	}
	return out
}

package agegroup

import (
	"fmt"
	"strings"
)

// Prompt - подсказка для начала работы над проектом.
type Prompt struct {
	Title    string `json:"title"`
	Guidance string `json:"guidance"`
	Example  string `json:"example"`
}

// PromptSet - ответ подбора подсказок.
type PromptSet struct {
	Prompts     []Prompt `json:"prompts"`
	Theme       *string  `json:"theme"`
	AgeGroup    string   `json:"age_group"`
	ProjectName string   `json:"project_name"`
}

type theme struct {
	name     string
	keywords []string
}

// Порядок важен: побеждает первая тема, ключевое слово которой входит в название.
var themes = []theme{
	{"adventure", []string{"journey", "exploration", "discovery", "quest", "travel"}},
	{"fantasy", []string{"magic", "wizard", "dragon", "fairy", "kingdom", "spell"}},
	{"mystery", []string{"detective", "clue", "secret", "puzzle", "investigation"}},
	{"friendship", []string{"friend", "buddy", "companion", "team", "together"}},
	{"family", []string{"mom", "dad", "sister", "brother", "grandma", "grandpa", "family"}},
	{"school", []string{"school", "teacher", "classroom", "student", "homework"}},
	{"animal", []string{"dog", "cat", "pet", "zoo", "farm", "wild", "animal"}},
	{"space", []string{"space", "planet", "star", "rocket", "astronaut", "alien"}},
	{"nature", []string{"forest", "ocean", "mountain", "garden", "tree", "flower"}},
	{"sports", []string{"game", "team", "play", "win", "sport", "ball", "race"}},
	{"food", []string{"cook", "eat", "recipe", "kitchen", "meal", "restaurant"}},
	{"holiday", []string{"christmas", "birthday", "vacation", "celebration", "party"}},
}

// DetectTheme ищет тему проекта по подстрокам названия. Пустая строка - тема не найдена.
func DetectTheme(projectName string) string {
	name := strings.ToLower(projectName)
	if name == "" {
		return ""
	}
	for _, t := range themes {
		for _, kw := range t.keywords {
			if strings.Contains(name, kw) {
				return t.name
			}
		}
	}
	return ""
}

var basePrompts = map[Group][]Prompt{
	EarlyYears: {
		{"Start with What You See", "Look around you! What do you see? Start by writing about one thing you can see right now.", "Try: 'I see a...' or 'There is a...'"},
		{"Tell About Your Day", "What did you do today? Pick one fun thing and tell us about it!", "Try: 'Today I...' or 'I like to...'"},
		{"Your Favorite Things", "What makes you happy? Write about something you really, really like!", "Try: 'My favorite...' or 'I love...'"},
	},
	LowerPrimary: {
		{"Create a Simple Story", "Every story needs a beginning, middle, and end. Start with 'Once upon a time' or 'One day'.", "Think: Who is your main character? What happens to them?"},
		{"Describe with Details", "Use your five senses! What do you see, hear, smell, taste, or feel?", "Instead of 'big', try 'huge' or 'enormous'. Add colors and sounds!"},
		{"Write About an Experience", "Think of something exciting that happened to you. Tell it like a story with details!", "Start with when and where it happened, then tell what you did."},
	},
	UpperPrimary: {
		{"Develop Character and Setting", "Create interesting characters with personalities. Describe where your story takes place in detail.", "What makes your character special? What does your setting look, sound, and feel like?"},
		{"Build Conflict and Resolution", "Every good story has a problem that needs solving. What challenge will your character face?", "Think about obstacles, mysteries to solve, or goals to achieve."},
		{"Use Dialogue and Action", "Make your characters talk to each other! Show what they do, don't just tell us.", `Instead of 'She was angry', try 'She slammed the door and shouted, "That's not fair!"'`},
		{"Add Descriptive Language", "Use metaphors, similes, and vivid adjectives to paint pictures with words.", "Try comparing things: 'as quiet as a mouse' or 'the wind whispered through the trees'."},
	},
	LowerSecondary: {
		{"Develop Complex Characters", "Create multi-dimensional characters with strengths, flaws, and clear motivations.", "What drives your character? What are they afraid of? How do they change throughout the story?"},
		{"Establish Theme and Message", "What deeper meaning or lesson do you want to explore through your story?", "Consider themes like friendship, courage, identity, or overcoming challenges."},
		{"Master Plot Structure", "Use rising action, climax, and falling action to create engaging narrative tension.", "Build suspense gradually, create a turning point, then resolve the conflict satisfyingly."},
		{"Experiment with Perspective", "Try different points of view (first person, third person) and narrative voices.", "How does the story change when told from different characters' perspectives?"},
	},
	UpperSecondary: {
		{"Explore Social Issues", "Address contemporary issues through your narrative while maintaining engaging storytelling.", "How can your story shed light on important social, environmental, or ethical questions?"},
		{"Develop Unique Voice", "Cultivate a distinctive writing style that reflects your personality and perspective.", "What makes your writing voice unique? How do you want readers to feel when they read your work?"},
		{"Use Advanced Literary Techniques", "Incorporate symbolism, foreshadowing, irony, and other sophisticated literary devices.", "How can objects, colors, or events represent deeper meanings in your story?"},
		{"Create Authentic Dialogue", "Write conversations that reveal character, advance plot, and sound natural.", "How do different characters speak? What do their word choices reveal about them?"},
	},
}

type themedPrompt struct {
	titleFormat string
	guidance    string
	example     string
}

// Тематическая подсказка встаёт первой, если тема совпала для этой группы.
var themedPrompts = map[Group]map[string]themedPrompt{
	EarlyYears: {
		"animal": {"Animal Story for '%s'", "Think of your favorite animal! What does it look like? What sound does it make?", "Try: 'The cat says...' or 'I saw a big...'"},
		"family": {"Family Story for '%s'", "Who is in your family? What do you like to do together?", "Try: 'My mom...' or 'We like to...'"},
	},
	LowerPrimary: {
		"adventure": {"Adventure Planning for '%s'", "Every adventure needs a brave character and an exciting place to explore!", "Think: Where will your character go? What will they find there?"},
		"school":    {"School Story for '%s'", "What happens at school? Think about classrooms, friends, and learning!", "You could write about a special day, a new friend, or learning something cool."},
	},
	UpperPrimary: {
		"mystery": {"Mystery Structure for '%s'", "Start with a puzzling event, add clues throughout, and reveal the solution at the end!", "What's the mystery? Who are the suspects? What clues will help solve it?"},
		"fantasy": {"Fantasy World-Building for '%s'", "Create a magical world with its own rules. What makes it different from our world?", "Think about magical creatures, special powers, and enchanted places."},
	},
	LowerSecondary: {
		"friendship": {"Friendship Dynamics in '%s'", "Explore the complexities of relationships - loyalty, conflict, growth, and understanding.", "How do friendships change us? What challenges test true friendship?"},
	},
}

// WritingPrompts подбирает подсказки для проекта. Длина списка не превышает
// MaxSuggestions группы; неизвестная группа трактуется как Default, но в ответе
// остаётся исходное значение.
func WritingPrompts(projectName, ageGroup string) PromptSet {
	g := Normalize(ageGroup)
	themeName := DetectTheme(projectName)

	prompts := make([]Prompt, 0, len(basePrompts[g])+1)
	if tp, ok := themedPrompts[g][themeName]; ok {
		prompts = append(prompts, Prompt{
			Title:    fmt.Sprintf(tp.titleFormat, projectName),
			Guidance: tp.guidance,
			Example:  tp.example,
		})
	}
	prompts = append(prompts, basePrompts[g]...)
	if limit := Get(g).MaxSuggestions; len(prompts) > limit {
		prompts = prompts[:limit]
	}

	set := PromptSet{Prompts: prompts, AgeGroup: ageGroup, ProjectName: projectName}
	if themeName != "" {
		set.Theme = &themeName
	}
	return set
}

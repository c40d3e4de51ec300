package suggestions

import "writingway/internal/agegroup"

// templates[тип][группа] - тексты подсказок правил. Индексы важны: правила
// ссылаются на первую, вторую и третью подсказку.
var templates = map[string]map[agegroup.Group][]string{
	TypeVocabulary: {
		agegroup.EarlyYears: {
			"Try using a describing word! Like 'big dog' or 'happy cat'",
			"Can you tell us what color it is?",
			"What sound does it make?",
		},
		agegroup.LowerPrimary: {
			"Try adding an adjective to make this more interesting",
			"Can you describe how it looks or feels?",
			"What details can you add here?",
		},
		agegroup.UpperPrimary: {
			"Consider using a more vivid adjective here",
			"Try adding sensory details - what do you see, hear, or feel?",
			"Can you use a simile or metaphor to describe this?",
		},
		agegroup.LowerSecondary: {
			"Consider using more sophisticated vocabulary",
			"Try varying your word choices to avoid repetition",
			"Can you use figurative language to enhance this description?",
		},
		agegroup.UpperSecondary: {
			"Consider more precise or sophisticated vocabulary",
			"Analyze the tone and register of your word choices",
			"Explore advanced rhetorical techniques",
		},
	},
	TypeStructure: {
		agegroup.EarlyYears: {
			"What happens next in your story?",
			"Can you tell us more about this?",
		},
		agegroup.LowerPrimary: {
			"Try starting your next sentence differently",
			"Can you add what happened next?",
			"Maybe add 'then' or 'next' to connect your ideas",
		},
		agegroup.UpperPrimary: {
			"Consider how this sentence connects to the previous one",
			"Try varying your sentence beginnings",
			"Can you add a transition word here?",
		},
		agegroup.LowerSecondary: {
			"Consider the flow between your paragraphs",
			"Try using transitional phrases to connect ideas",
			"Think about the logical progression of your argument",
		},
		agegroup.UpperSecondary: {
			"Consider the rhetorical structure of your argument",
			"Analyze the effectiveness of your paragraph organization",
			"Evaluate the logical progression and coherence",
		},
	},
	TypeCreativity: {
		agegroup.EarlyYears: {
			"What do you think happens next?",
			"Can you imagine something fun here?",
		},
		agegroup.LowerPrimary: {
			"What if you added something surprising here?",
			"Can you think of an interesting detail?",
			"What would make this part more exciting?",
		},
		agegroup.UpperPrimary: {
			"Consider adding dialogue to bring this scene to life",
			"What emotions might your character be feeling?",
			"Can you add an unexpected twist or detail?",
		},
		agegroup.LowerSecondary: {
			"Explore the emotional depth of this moment",
			"Consider multiple perspectives on this situation",
			"What underlying themes could you develop here?",
		},
		agegroup.UpperSecondary: {
			"Analyze the thematic complexity of this passage",
			"Consider the philosophical implications",
			"Explore the cultural or historical context",
		},
	},
}

// coachingProfile - тон AI-подсказок и общих советов для группы.
type coachingProfile struct {
	complexity    string
	vocabulary    string
	encouragement string
	focus         []string
}

var profiles = map[agegroup.Group]coachingProfile{
	agegroup.EarlyYears: {
		complexity:    "very simple",
		vocabulary:    "basic words",
		encouragement: "very positive and exciting",
		focus:         []string{"basic vocabulary", "simple sentences", "picture-story connection"},
	},
	agegroup.LowerPrimary: {
		complexity:    "simple",
		vocabulary:    "elementary words",
		encouragement: "positive and supportive",
		focus:         []string{"reading foundation", "short narratives", "daily life themes"},
	},
	agegroup.UpperPrimary: {
		complexity:    "intermediate",
		vocabulary:    "expanded vocabulary",
		encouragement: "constructive and helpful",
		focus:         []string{"complex plots", "character interactions", "adventure themes"},
	},
	agegroup.LowerSecondary: {
		complexity:    "intermediate-advanced",
		vocabulary:    "sophisticated words",
		encouragement: "analytical and supportive",
		focus:         []string{"critical thinking", "long narratives", "social issues"},
	},
	agegroup.UpperSecondary: {
		complexity:    "advanced",
		vocabulary:    "mature vocabulary",
		encouragement: "academic and inspiring",
		focus:         []string{"mature themes", "philosophical concepts", "advanced writing"},
	},
}

func templatesFor(kind string, g agegroup.Group) []string {
	return templates[kind][g]
}

func profileFor(g agegroup.Group) coachingProfile {
	if p, ok := profiles[g]; ok {
		return p
	}
	return profiles[agegroup.Default]
}

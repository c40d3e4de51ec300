package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator_AssistIsDeterministic(t *testing.T) {
	m := NewMockGenerator()
	r1, s1 := m.Assist("The cat sat on the mat.", AssistImprove)
	r2, s2 := m.Assist("The cat sat on the mat.", AssistImprove)
	assert.Equal(t, r1, r2)
	assert.Equal(t, s1, s2)
	assert.Contains(t, mockResponses[AssistImprove], r1)
	assert.Len(t, s1, 5)
}

func TestMockGenerator_AssistUnknownType(t *testing.T) {
	r, s := NewMockGenerator().Assist("text", "translate")
	assert.Equal(t, mockDefaultResult, r)
	assert.Empty(t, s)

	r, s = NewMockGenerator().Assist("text", AssistSummarize)
	assert.Equal(t, mockDefaultResult, r)
	assert.Empty(t, s)
}

func TestMockGenerator_AnalyzeShortText(t *testing.T) {
	r, s := NewMockGenerator().Assist("Too short.", AssistAnalyze)
	assert.True(t, strings.HasPrefix(r, "**Issues Found:**\n• Text is too short, content is insufficient"))
	assert.Contains(t, r, "**Overall Assessment:**")
	require.Len(t, s, 8)
	assert.Equal(t, "Text is too short, suggest expanding content depth", s[0])
}

func TestAnalyzeTextIssues(t *testing.T) {
	good := "The morning was quiet and cold. Anna walked slowly toward an old bridge by the river."
	assert.Empty(t, AnalyzeTextIssues(good))

	repeated := "the dog and the dog and the dog and the dog went home. It was late at night for everyone there."
	issues := AnalyzeTextIssues(repeated)
	assert.Contains(t, issues, "Excessive word repetition: the, dog")

	commas := "one, two, three, four, five, six, seven and eight are numbers we count."
	assert.Contains(t, AnalyzeTextIssues(commas), "Excessive comma usage, suggest appropriate use of periods")

	long := strings.Repeat("Long sentence without any break at all keeps going on and on ", 5)
	assert.Contains(t, AnalyzeTextIssues(long), "Lack of paragraph separation, suggest paragraphing to improve readability")
}

func TestMockGenerator_ChatKeywords(t *testing.T) {
	m := NewMockGenerator()
	assert.Contains(t, chatCharacter, m.Chat("How do I make my protagonist likeable?"))
	assert.Contains(t, chatBeginning, m.Chat("Help me start chapter one"))
	assert.Contains(t, chatGeneral, m.Chat("My story needs a twist"))
	assert.Contains(t, chatGeneral, m.Chat("hello"))
}

func TestMockGenerator_GenerateMarksFallback(t *testing.T) {
	resp, err := NewMockGenerator().Generate(context.Background(), Request{
		Task:     TaskImprove,
		Messages: []Message{{Role: "user", Content: "Hello"}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Equal(t, ProviderMock, resp.Provider)
	assert.NotEmpty(t, resp.Text)
}

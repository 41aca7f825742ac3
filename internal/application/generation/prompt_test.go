package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIllustrationPrompt_Deterministic(t *testing.T) {
	d := sampleDraft(3)
	a := IllustrationPrompt(d, 2, 3)
	b := IllustrationPrompt(d, 2, 3)

	assert.Equal(t, a, b)
	assert.Contains(t, a, "illustration 2 of 3")
	assert.Contains(t, a, "watercolor")
	assert.Contains(t, a, "warm")
	assert.Contains(t, a, "dreamy")
	assert.Contains(t, a, "fantasy")
	assert.Contains(t, a, "A swan learns to sing.")
}

func TestIllustrationPrompt_FallsBackToIdea(t *testing.T) {
	d := sampleDraft(1)
	d.Description = ""
	d.Idea = "a  lonely\nlighthouse"

	p := IllustrationPrompt(d, 1, 1)
	assert.Contains(t, p, "Story: a lonely lighthouse")
}

func TestIllustrationPrompt_OnlyPositionVaries(t *testing.T) {
	d := sampleDraft(2)
	a := IllustrationPrompt(d, 1, 2)
	b := IllustrationPrompt(d, 2, 2)
	assert.Equal(t, strings.Replace(a, "1 of 2", "2 of 2", 1), b)
}

func TestIllustrationPrompt_TruncatesLongStory(t *testing.T) {
	d := sampleDraft(1)
	d.Description = strings.Repeat("x", 1000)
	p := IllustrationPrompt(d, 1, 1)
	assert.Contains(t, p, strings.Repeat("x", promptStoryMaxRunes)+"…")
	assert.NotContains(t, p, strings.Repeat("x", promptStoryMaxRunes+1))
}

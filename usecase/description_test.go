package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDescription_AppendsMissingTags(t *testing.T) {
	got := DeriveDescription("Check out my new video!", "#shorts #viralvideo")
	assert.Equal(t, "Check out my new video! #shorts #viralvideo", got)
}

func TestDeriveDescription_SkipsTagsAlreadyPresent(t *testing.T) {
	got := DeriveDescription("Already tagged #shorts here", "#shorts #viralvideo")
	assert.Equal(t, "Already tagged #shorts here #viralvideo", got)
}

func TestDeriveDescription_AllTagsPresent(t *testing.T) {
	base := "Everything tagged #shorts #viralvideo"
	assert.Equal(t, base, DeriveDescription(base, "#shorts #viralvideo"))
}

func TestDeriveDescription_EmptyBase(t *testing.T) {
	assert.Equal(t, "#shorts #viralvideo", DeriveDescription("", "#shorts #viralvideo"))
}

func TestDeriveDescription_ThaiTags(t *testing.T) {
	got := DeriveDescription("วิดีโอใหม่", "#เล่าเรื่อง #คลิปไวรัล")
	assert.Equal(t, "วิดีโอใหม่ #เล่าเรื่อง #คลิปไวรัล", got)
}

func TestDeriveTitle_ShortDescription(t *testing.T) {
	assert.Equal(t, "A quick clip", DeriveTitle("A quick clip"))
}

func TestDeriveTitle_EmptyDescription(t *testing.T) {
	assert.Equal(t, "Untitled Video", DeriveTitle(""))
	assert.Equal(t, "Untitled Video", DeriveTitle("   "))
}

func TestDeriveTitle_TruncatesAtRuneBoundary(t *testing.T) {
	long := strings.Repeat("ก", 150)
	title := DeriveTitle(long)
	assert.Equal(t, 100, len([]rune(title)))
	assert.Equal(t, strings.Repeat("ก", 100), title)
}

func TestDeriveTitle_ExactLimitKept(t *testing.T) {
	exact := strings.Repeat("a", 100)
	assert.Equal(t, exact, DeriveTitle(exact))
}

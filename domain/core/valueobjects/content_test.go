package valueobjects

import (
	"strings"
	"testing"

	"loom-backend/domain/config"
	pkgerrors "loom-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentItem(t *testing.T) {
	item := NewContentItem("some passage text")

	assert.NotEmpty(t, item.ID())
	assert.Equal(t, "some passage text", item.Text())
	assert.Equal(t, 3, item.WordCount())
	assert.False(t, item.IsEmpty())
	assert.Nil(t, item.Metadata())

	assert.True(t, NewContentItem("   ").IsEmpty())
}

func TestContentItem_MetadataIsCopied(t *testing.T) {
	meta := map[string]interface{}{"score": 0.5}
	item := NewContentItemWithMetadata("text", meta)

	// Mutating the source map after construction changes nothing
	meta["score"] = 0.9
	v, ok := item.MetadataValue("score")
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	// Mutating the returned copy changes nothing either
	out := item.Metadata()
	out["score"] = 0.1
	v, _ = item.MetadataValue("score")
	assert.Equal(t, 0.5, v)
}

func TestContent_SingleVersusList(t *testing.T) {
	single := NewContentFromText("hello")
	assert.False(t, single.IsList())
	assert.Equal(t, 1, single.Len())
	assert.Equal(t, "hello", single.First().Text())

	list := NewContentList([]ContentItem{
		NewContentItem("a"),
		NewContentItem("b"),
	})
	assert.True(t, list.IsList())
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, "a b", list.JoinedText(" "))
}

func TestContent_Validate(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	require.NoError(t, NewContentFromText("fine").Validate(cfg))

	err := NewContentFromText("   ").Validate(cfg)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	long := strings.Repeat("x", cfg.MaxContentLength+1)
	err = NewContentFromText(long).Validate(cfg)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	// Empty content passes when the config allows it
	dev := config.DevelopmentDomainConfig()
	require.NoError(t, NewContentFromText("").Validate(dev))
}

func TestContent_Summary(t *testing.T) {
	content := NewContentFromText("a rather long passage of text")

	assert.Equal(t, "a rather long passage of text", content.Summary(100))
	assert.Equal(t, "a rather l...", content.Summary(13))
	assert.Equal(t, "", content.Summary(0))
}

func TestArchiveSource_Validate(t *testing.T) {
	require.NoError(t, ArchiveSource{Type: SourceFilesystem}.Validate())
	require.NoError(t, ArchiveSource{Type: SourceChatGPT, ConversationFolder: "notes"}.Validate())

	err := ArchiveSource{Type: SourceType("carrier-pigeon")}.Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	err = ArchiveSource{Type: SourceChatGPT}.Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestTransformSource_CopiesPath(t *testing.T) {
	path := []string{"ChatGPT", "Notes"}
	source := TransformSource(path)

	path[0] = "mutated"
	assert.Equal(t, "ChatGPT / Notes", source.Breadcrumb())
	assert.Equal(t, SourceTransform, source.Type)
}

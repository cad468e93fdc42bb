package operators

import (
	"context"
	"strings"
	"testing"

	"loom-backend/application/ports"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubTransformService fakes the remote backend with deterministic rewrites
type stubTransformService struct {
	err       error
	sentences []ports.SentenceAnalysis
}

func (s *stubTransformService) Humanize(_ context.Context, text string, _ map[string]interface{}) (*ports.TransformResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.TransformResult{Transformed: "humanized: " + text}, nil
}

func (s *stubTransformService) TransformPersona(_ context.Context, text, persona string, _ map[string]interface{}) (*ports.TransformResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.TransformResult{Transformed: persona + " says: " + text}, nil
}

func (s *stubTransformService) TransformStyle(_ context.Context, text, style string, _ map[string]interface{}) (*ports.TransformResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.TransformResult{Transformed: strings.ToUpper(style) + ": " + text}, nil
}

func (s *stubTransformService) AnalyzeSentences(_ context.Context, _ string, _ ports.ProgressFunc) ([]ports.SentenceAnalysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sentences, nil
}

func remoteRegistry(t *testing.T, svc ports.TransformService) *Registry {
	t.Helper()
	r := NewRegistry(nil, zap.NewNop())
	require.NoError(t, RegisterRemoteOperators(r, svc))
	return r
}

func TestRemote_HumanizeSingleItem(t *testing.T) {
	r := remoteRegistry(t, &stubTransformService{})

	result, err := r.ApplyOperator(context.Background(), "humanize",
		valueobjects.NewContentFromText("stiff text"), nil)
	require.NoError(t, err)
	assert.False(t, result.IsList())
	assert.Equal(t, "humanized: stiff text", result.JoinedText(" "))
}

func TestRemote_PersonaPreservesListShape(t *testing.T) {
	r := remoteRegistry(t, &stubTransformService{})
	list := valueobjects.NewContentList([]valueobjects.ContentItem{
		valueobjects.NewContentItem("first"),
		valueobjects.NewContentItem("second"),
	})

	result, err := r.ApplyOperator(context.Background(), "persona", list,
		map[string]interface{}{"persona": "pirate"})
	require.NoError(t, err)
	assert.True(t, result.IsList())
	require.Equal(t, 2, result.Len())
	assert.Equal(t, "pirate says: first", result.Items()[0].Text())
	assert.Equal(t, "pirate says: second", result.Items()[1].Text())
}

func TestRemote_PersonaRequiresParam(t *testing.T) {
	r := remoteRegistry(t, &stubTransformService{})

	_, err := r.ApplyOperator(context.Background(), "persona",
		valueobjects.NewContentFromText("text"), nil)
	assert.True(t, pkgerrors.IsInvalidParams(err))
}

func TestRemote_HumanizeIntensityValidated(t *testing.T) {
	r := remoteRegistry(t, &stubTransformService{})

	_, err := r.ApplyOperator(context.Background(), "humanize",
		valueobjects.NewContentFromText("text"),
		map[string]interface{}{"intensity": "extreme"})
	assert.True(t, pkgerrors.IsInvalidParams(err))
}

func TestRemote_CancellationPassesThrough(t *testing.T) {
	r := remoteRegistry(t, &stubTransformService{err: pkgerrors.NewCancelledError("transform")})

	_, err := r.ApplyOperator(context.Background(), "humanize",
		valueobjects.NewContentFromText("text"), nil)
	assert.True(t, pkgerrors.IsCancelled(err))
}

func TestRemote_AnalyzeSentencesAttachesMetadata(t *testing.T) {
	svc := &stubTransformService{
		sentences: []ports.SentenceAnalysis{
			{Sentence: "First.", Stance: "neutral", Entropy: 0.5, Score: 0.8},
			{Sentence: "Second.", Stance: "assertive", Entropy: 0.9, Score: 0.6},
		},
	}
	r := remoteRegistry(t, svc)

	result, err := r.ApplyOperator(context.Background(), "analyze-sentences",
		valueobjects.NewContentFromText("First. Second."), nil)
	require.NoError(t, err)
	assert.True(t, result.IsList())
	require.Equal(t, 2, result.Len())

	first := result.Items()[0]
	assert.Equal(t, "First.", first.Text())
	score, ok := first.MetadataValue(ScoreMetadataKey)
	require.True(t, ok)
	assert.Equal(t, 0.8, score)
	stance, _ := first.MetadataValue("stance")
	assert.Equal(t, "neutral", stance)
}

func TestRemote_AnalyzeSentencesEmptyResult(t *testing.T) {
	r := remoteRegistry(t, &stubTransformService{})

	_, err := r.ApplyOperator(context.Background(), "analyze-sentences",
		valueobjects.NewContentFromText("text"), nil)
	assert.True(t, pkgerrors.IsOperatorExecution(err))
}

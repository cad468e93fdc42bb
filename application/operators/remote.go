package operators

import (
	"context"

	"loom-backend/application/ports"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"
)

// ScoreMetadataKey is the item metadata key carrying per-sentence scores.
// The buffer manager averages it into the committed node's avgScore.
const ScoreMetadataKey = "score"

// RegisterRemoteOperators installs operators backed by the transform service.
// Their bodies suspend at the network boundary; cancellation aborts the call
// and surfaces as Cancelled without any content being produced.
func RegisterRemoteOperators(r *Registry, svc ports.TransformService) error {
	defs := []OperatorDefinition{
		{
			ID:          "humanize",
			Name:        "Humanize",
			Description: "Rewrite machine-sounding text into natural prose",
			Type:        TypeTransform,
			Params: []ParamSpec{
				{Name: "intensity", Description: "Rewrite intensity", Rules: "oneof=light moderate heavy", Default: "moderate"},
			},
			Apply: remotePerItem(func(ctx context.Context, text string, params map[string]interface{}) (*ports.TransformResult, error) {
				return svc.Humanize(ctx, text, params)
			}),
		},
		{
			ID:          "persona",
			Name:        "Persona rewrite",
			Description: "Rewrite text in the voice of a persona",
			Type:        TypeTransform,
			Params: []ParamSpec{
				{Name: "persona", Description: "Persona name or description", Required: true, Rules: "min=1"},
			},
			Apply: remotePerItem(func(ctx context.Context, text string, params map[string]interface{}) (*ports.TransformResult, error) {
				persona, _ := params["persona"].(string)
				return svc.TransformPersona(ctx, text, persona, params)
			}),
		},
		{
			ID:          "style",
			Name:        "Style rewrite",
			Description: "Rewrite text in a target style",
			Type:        TypeTransform,
			Params: []ParamSpec{
				{Name: "style", Description: "Target style", Required: true, Rules: "min=1"},
			},
			Apply: remotePerItem(func(ctx context.Context, text string, params map[string]interface{}) (*ports.TransformResult, error) {
				style, _ := params["style"].(string)
				return svc.TransformStyle(ctx, text, style, params)
			}),
		},
		{
			ID:          "analyze-sentences",
			Name:        "Analyze sentences",
			Description: "Split into sentences scored for stance and entropy",
			Type:        TypeSplit,
			Apply: func(ctx context.Context, content valueobjects.Content, _ map[string]interface{}) (valueobjects.Content, error) {
				results, err := svc.AnalyzeSentences(ctx, content.JoinedText(" "), nil)
				if err != nil {
					return valueobjects.Content{}, err
				}
				if len(results) == 0 {
					return valueobjects.Content{}, pkgerrors.NewOperatorExecutionError(
						"analyze-sentences", pkgerrors.NewInternalError("analysis returned no sentences"))
				}

				items := make([]valueobjects.ContentItem, len(results))
				for i, res := range results {
					items[i] = valueobjects.NewContentItemWithMetadata(res.Sentence, map[string]interface{}{
						"stance":         res.Stance,
						"entropy":        res.Entropy,
						ScoreMetadataKey: res.Score,
					})
				}
				return valueobjects.NewContentList(items), nil
			},
		},
	}

	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// remotePerItem applies a single-text remote call to every item, preserving
// list shape. A failure on any item fails the whole application.
func remotePerItem(call func(ctx context.Context, text string, params map[string]interface{}) (*ports.TransformResult, error)) ApplyFunc {
	return func(ctx context.Context, content valueobjects.Content, params map[string]interface{}) (valueobjects.Content, error) {
		items := content.Items()
		out := make([]valueobjects.ContentItem, len(items))
		for i, item := range items {
			result, err := call(ctx, item.Text(), params)
			if err != nil {
				return valueobjects.Content{}, err
			}
			out[i] = valueobjects.NewContentItemWithMetadata(result.Transformed, result.Metadata)
		}
		if content.IsList() {
			return valueobjects.NewContentList(out), nil
		}
		return valueobjects.NewContent(out[0]), nil
	}
}

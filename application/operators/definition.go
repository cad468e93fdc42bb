package operators

import (
	"context"

	"loom-backend/domain/core/valueobjects"
)

// OperatorType groups operators for tool presentation
type OperatorType string

const (
	TypeTransform OperatorType = "transform"
	TypeSplit     OperatorType = "split"
	TypeFilter    OperatorType = "filter"
	TypeOrder     OperatorType = "order"
)

// ApplyFunc is the uniform operator body: one call, one result. Pure operators
// return immediately; remote-backed operators suspend at the network boundary
// and honor context cancellation. Bodies never touch the graph.
type ApplyFunc func(ctx context.Context, content valueobjects.Content, params map[string]interface{}) (valueobjects.Content, error)

// ParamSpec describes one operator parameter. Rules is a validator tag
// expression (e.g. "oneof=light moderate heavy") evaluated against the value.
type ParamSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required"`
	Rules       string      `json:"rules,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// OperatorDefinition is a registered, parameterized content transform
type OperatorDefinition struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Type        OperatorType `json:"type"`
	Params      []ParamSpec  `json:"params,omitempty"`
	Apply       ApplyFunc    `json:"-"`
}

// PipelineStep pairs an operator with the params it runs under
type PipelineStep struct {
	OperatorID string                 `json:"operatorId"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

// PipelineDefinition is a named ordered composition of operators
type PipelineDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Steps       []PipelineStep `json:"steps"`
}

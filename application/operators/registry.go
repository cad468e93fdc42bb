package operators

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"loom-backend/domain/config"
	"loom-backend/domain/core/valueobjects"
	pkgerrors "loom-backend/pkg/errors"
	"loom-backend/pkg/utils"

	"go.uber.org/zap"
)

// Registry is the catalog of operators and pipelines. Same-id re-registration
// replaces the entry, which lets the pipeline catalog watcher reload user
// pipelines without a restart; the built-in set is fixed once wired.
type Registry struct {
	mu               sync.RWMutex
	operators        map[string]OperatorDefinition
	operatorOrder    []string
	pipelines        map[string]PipelineDefinition
	pipelineOrder    []string
	maxPipelineSteps int
	logger           *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(cfg *config.DomainConfig, logger *zap.Logger) *Registry {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Registry{
		operators:        make(map[string]OperatorDefinition),
		pipelines:        make(map[string]PipelineDefinition),
		maxPipelineSteps: cfg.MaxPipelineSteps,
		logger:           logger,
	}
}

// Register adds an operator; re-registering an id replaces the entry in place
func (r *Registry) Register(def OperatorDefinition) error {
	if def.ID == "" {
		return pkgerrors.NewValidationError("operator id cannot be empty")
	}
	if def.Apply == nil {
		return pkgerrors.NewValidationError("operator apply function cannot be nil")
	}
	switch def.Type {
	case TypeTransform, TypeSplit, TypeFilter, TypeOrder:
	default:
		return pkgerrors.NewValidationError("unknown operator type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.operators[def.ID]; !exists {
		r.operatorOrder = append(r.operatorOrder, def.ID)
	}
	r.operators[def.ID] = def
	return nil
}

// Get returns the operator definition for id
func (r *Registry) Get(operatorID string) (OperatorDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.operators[operatorID]
	if !ok {
		return OperatorDefinition{}, pkgerrors.NewNotFoundError(fmt.Sprintf("operator %s", operatorID))
	}
	return def, nil
}

// List returns all operators in registration order
func (r *Registry) List() []OperatorDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]OperatorDefinition, 0, len(r.operatorOrder))
	for _, id := range r.operatorOrder {
		out = append(out, r.operators[id])
	}
	return out
}

// ListByType returns operators of one type in registration order
func (r *Registry) ListByType(t OperatorType) []OperatorDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []OperatorDefinition
	for _, id := range r.operatorOrder {
		if def := r.operators[id]; def.Type == t {
			out = append(out, def)
		}
	}
	return out
}

// RegisterPipeline adds a pipeline; re-registering an id replaces the entry.
// Step operators are resolved at apply time, so catalog order does not matter.
func (r *Registry) RegisterPipeline(def PipelineDefinition) error {
	if def.ID == "" {
		return pkgerrors.NewValidationError("pipeline id cannot be empty")
	}
	if len(def.Steps) == 0 {
		return pkgerrors.NewValidationError("pipeline must have at least one step")
	}
	if len(def.Steps) > r.maxPipelineSteps {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("pipeline %s has %d steps, maximum is %d", def.ID, len(def.Steps), r.maxPipelineSteps))
	}
	for _, step := range def.Steps {
		if step.OperatorID == "" {
			return pkgerrors.NewValidationError("pipeline step operator id cannot be empty")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pipelines[def.ID]; !exists {
		r.pipelineOrder = append(r.pipelineOrder, def.ID)
	}
	r.pipelines[def.ID] = def
	return nil
}

// GetPipeline returns the pipeline definition for id
func (r *Registry) GetPipeline(pipelineID string) (PipelineDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.pipelines[pipelineID]
	if !ok {
		return PipelineDefinition{}, pkgerrors.NewNotFoundError(fmt.Sprintf("pipeline %s", pipelineID))
	}
	return def, nil
}

// ListPipelines returns all pipelines in registration order
func (r *Registry) ListPipelines() []PipelineDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PipelineDefinition, 0, len(r.pipelineOrder))
	for _, id := range r.pipelineOrder {
		out = append(out, r.pipelines[id])
	}
	return out
}

// ApplyOperator validates params against the operator's schema and runs the
// body. The registry never touches the graph; committing the result is the
// caller's concern.
func (r *Registry) ApplyOperator(
	ctx context.Context,
	operatorID string,
	content valueobjects.Content,
	params map[string]interface{},
) (valueobjects.Content, error) {
	def, err := r.Get(operatorID)
	if err != nil {
		return valueobjects.Content{}, err
	}

	resolved, err := resolveParams(def, params)
	if err != nil {
		return valueobjects.Content{}, err
	}

	if err := ctx.Err(); err != nil {
		return valueobjects.Content{}, pkgerrors.NewCancelledError(operatorID)
	}

	result, err := def.Apply(ctx, content, resolved)
	if err != nil {
		return valueobjects.Content{}, classifyApplyError(operatorID, err)
	}
	return result, nil
}

// ApplyPipeline folds ApplyOperator across the pipeline's steps, each step's
// output feeding the next step's input. All steps and their params are
// resolved before the first body runs, so a bad step fails the whole chain
// without side effects.
func (r *Registry) ApplyPipeline(
	ctx context.Context,
	pipelineID string,
	content valueobjects.Content,
) (valueobjects.Content, error) {
	pipeline, err := r.GetPipeline(pipelineID)
	if err != nil {
		return valueobjects.Content{}, err
	}

	type resolvedStep struct {
		def    OperatorDefinition
		params map[string]interface{}
	}

	steps := make([]resolvedStep, 0, len(pipeline.Steps))
	for _, step := range pipeline.Steps {
		def, err := r.Get(step.OperatorID)
		if err != nil {
			return valueobjects.Content{}, pkgerrors.Wrapf(err, "pipeline %s", pipelineID)
		}
		params, err := resolveParams(def, step.Params)
		if err != nil {
			return valueobjects.Content{}, pkgerrors.Wrapf(err, "pipeline %s step %s", pipelineID, step.OperatorID)
		}
		steps = append(steps, resolvedStep{def: def, params: params})
	}

	current := content
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return valueobjects.Content{}, pkgerrors.NewCancelledError(pipelineID)
		}
		next, err := step.def.Apply(ctx, current, step.params)
		if err != nil {
			return valueobjects.Content{}, classifyApplyError(step.def.ID, err)
		}
		current = next
	}
	return current, nil
}

// resolveParams checks params against the schema and fills defaults
func resolveParams(def OperatorDefinition, params map[string]interface{}) (map[string]interface{}, error) {
	known := make(map[string]ParamSpec, len(def.Params))
	for _, spec := range def.Params {
		known[spec.Name] = spec
	}

	for name := range params {
		if _, ok := known[name]; !ok {
			return nil, pkgerrors.NewInvalidParamsError(
				fmt.Sprintf("operator %s does not accept parameter '%s'", def.ID, name))
		}
	}

	resolved := make(map[string]interface{}, len(def.Params))
	for _, spec := range def.Params {
		value, present := params[spec.Name]
		if !present || value == nil {
			if spec.Required && spec.Default == nil {
				return nil, pkgerrors.NewInvalidParamsError(
					fmt.Sprintf("operator %s requires parameter '%s'", def.ID, spec.Name))
			}
			if spec.Default != nil {
				resolved[spec.Name] = spec.Default
			}
			continue
		}

		if spec.Rules != "" {
			if err := utils.ValidateVar(value, spec.Rules); err != nil {
				return nil, pkgerrors.NewInvalidParamsError(
					fmt.Sprintf("parameter '%s' of operator %s is invalid: must satisfy %s", spec.Name, def.ID, spec.Rules))
			}
		}
		resolved[spec.Name] = value
	}
	return resolved, nil
}

// classifyApplyError maps a body failure onto the error taxonomy. Context
// cancellation is not a failure; everything else is an execution error.
func classifyApplyError(operatorID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewCancelledError(operatorID)
	}
	if pkgerrors.IsCancelled(err) || pkgerrors.IsInvalidParams(err) || pkgerrors.IsValidation(err) {
		return err
	}
	if pkgerrors.IsOperatorExecution(err) {
		return err
	}
	return pkgerrors.NewOperatorExecutionError(operatorID, err)
}

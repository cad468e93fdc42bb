package operators

import (
	"fmt"
	"os"

	pkgerrors "loom-backend/pkg/errors"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RegisterDefaultPipelines installs the pipelines shipped with the studio
func RegisterDefaultPipelines(r *Registry) error {
	defs := []PipelineDefinition{
		{
			ID:          "clean-split",
			Name:        "Clean and split",
			Description: "Trim, then split into sentences",
			Steps: []PipelineStep{
				{OperatorID: "trim"},
				{OperatorID: "split-sentences"},
			},
		},
		{
			ID:          "humanize-passage",
			Name:        "Humanize passage",
			Description: "Trim, then humanize",
			Steps: []PipelineStep{
				{OperatorID: "trim"},
				{OperatorID: "humanize", Params: map[string]interface{}{"intensity": "moderate"}},
			},
		},
	}

	for _, def := range defs {
		if err := r.RegisterPipeline(def); err != nil {
			return err
		}
	}
	return nil
}

// catalogFile is the YAML shape of a user pipeline catalog
type catalogFile struct {
	Pipelines []catalogPipeline `yaml:"pipelines"`
}

type catalogPipeline struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Steps       []catalogStep `yaml:"steps"`
}

type catalogStep struct {
	Operator string                 `yaml:"operator"`
	Params   map[string]interface{} `yaml:"params"`
}

// LoadCatalogFile parses a user pipeline catalog
func LoadCatalogFile(path string) ([]PipelineDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("reading pipeline catalog %s", path)).WithCause(err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, pkgerrors.NewValidationError("pipeline catalog is not valid YAML").WithCause(err)
	}

	defs := make([]PipelineDefinition, 0, len(file.Pipelines))
	for _, p := range file.Pipelines {
		def := PipelineDefinition{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
		}
		for _, s := range p.Steps {
			def.Steps = append(def.Steps, PipelineStep{OperatorID: s.Operator, Params: s.Params})
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ReloadCatalog registers every pipeline from the catalog file, replacing
// entries with matching ids. Invalid definitions are skipped, not fatal, so a
// half-edited catalog never takes the registry down.
func (r *Registry) ReloadCatalog(path string) error {
	defs, err := LoadCatalogFile(path)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if err := r.RegisterPipeline(def); err != nil {
			if r.logger != nil {
				r.logger.Warn("Skipping invalid catalog pipeline",
					zap.String("pipelineID", def.ID),
					zap.Error(err),
				)
			}
			continue
		}
	}

	if r.logger != nil {
		r.logger.Info("Pipeline catalog loaded",
			zap.String("path", path),
			zap.Int("pipelines", len(defs)),
		)
	}
	return nil
}

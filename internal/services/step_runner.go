package services

import (
	"context"
	"errors"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	"github.com/yungbote/ideabank-backend/internal/modules/lineage"
	"github.com/yungbote/ideabank-backend/internal/modules/plan"
)

var errNoPreviousGeneration = errors.New("edit step has no earlier generation to edit")

// GenerationStepRunner runs plan steps through the lineage service, so every step output
// is a recorded Generation.
type GenerationStepRunner struct {
	Lineage     *lineage.Service
	AspectRatio string
}

func (r *GenerationStepRunner) RunStep(ctx context.Context, in plan.StepInput) (plan.StepResult, error) {
	switch in.Step.Kind {
	case content.StepKindEdit:
		if in.PreviousGenerationID == nil {
			return plan.StepResult{}, errNoPreviousGeneration
		}
		g, err := r.Lineage.Edit(ctx, in.OwnerID, *in.PreviousGenerationID, in.Step.Prompt)
		if err != nil {
			return plan.StepResult{}, err
		}
		id := g.ID
		return plan.StepResult{GenerationID: &id}, nil
	default:
		g, err := r.Lineage.Generate(ctx, in.OwnerID, in.Step.Prompt, content.GenerateOptions{
			AspectRatio: r.AspectRatio,
			ProductIDs:  in.Step.ProductIDs,
			Platform:    in.Step.Platform,
		})
		if err != nil {
			return plan.StepResult{}, err
		}
		id := g.ID
		return plan.StepResult{GenerationID: &id}, nil
	}
}

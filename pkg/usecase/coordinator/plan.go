package coordinator

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/jsonx"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

//go:embed prompt/plan.md
var planPromptRaw string

var planPromptTmpl = template.Must(template.New("plan").Parse(planPromptRaw))

// Plan asks the language model for an execution plan for the task and
// parses it as strict JSON. Responses wrapped in a markdown code fence
// are tolerated; anything that still fails to parse or validate is
// surfaced as model.ErrPlanParse without retry.
func (uc *UseCase) Plan(ctx context.Context, task string) (*model.ExecutionPlan, error) {
	var buf bytes.Buffer
	if err := planPromptTmpl.Execute(&buf, map[string]any{
		"Task":   task,
		"Agents": uc.catalogLines(),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute plan prompt template")
	}

	raw, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate plan", goerr.V("task", task))
	}

	var plan model.ExecutionPlan
	body := jsonx.Extract(raw)
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, goerr.Wrap(model.ErrPlanParse, err.Error(), goerr.V("response", raw))
	}
	if err := plan.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrPlanParse, err.Error(), goerr.V("response", raw))
	}
	plan.GeneratedAt = time.Now()

	logging.Component(ctx, "coordinator").Info("execution plan generated",
		"task_type", plan.TaskType,
		"agents", plan.AgentsRequired,
		"strategy", plan.ExecutionStrategy,
		"complexity", plan.EstimatedComplexity)

	return &plan, nil
}

package coordinator

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/jsonx"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

//go:embed prompt/negotiate.md
var negotiatePromptRaw string

var negotiatePromptTmpl = template.Must(template.New("negotiate").Parse(negotiatePromptRaw))

// Negotiate asks the language model to assign priorities and a fallback
// ordering among the given agents. The same JSON extraction contract as
// Plan applies. The fallback chain in the result is advisory metadata:
// it is recorded for escalation decisions but not executed here.
func (uc *UseCase) Negotiate(ctx context.Context, agents []model.AgentName, complexity model.Complexity) (*model.ResourceNegotiation, error) {
	if len(agents) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "no agents to negotiate")
	}

	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, string(a))
	}

	var buf bytes.Buffer
	if err := negotiatePromptTmpl.Execute(&buf, map[string]any{
		"Agents":     strings.Join(names, ", "),
		"Complexity": complexity,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute negotiate prompt template")
	}

	raw, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate negotiation", goerr.V("agents", names))
	}

	var negotiation model.ResourceNegotiation
	body := jsonx.Extract(raw)
	if err := json.Unmarshal([]byte(body), &negotiation); err != nil {
		return nil, goerr.Wrap(model.ErrNegotiationParse, err.Error(), goerr.V("response", raw))
	}
	if err := negotiation.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrNegotiationParse, err.Error(), goerr.V("response", raw))
	}

	logging.Component(ctx, "coordinator").Info("resources negotiated",
		"primary", negotiation.PrimaryAgent,
		"support", negotiation.SupportAgents)

	return &negotiation, nil
}

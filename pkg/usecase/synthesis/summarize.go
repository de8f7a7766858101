package synthesis

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/summary.md
var summaryPromptRaw string

var summaryPromptTmpl = template.Must(template.New("summary").Parse(summaryPromptRaw))

// Summarize condenses a standalone text. Unlike Answer there is no
// context grounding; the model sees the full text.
func (uc *UseCase) Summarize(ctx context.Context, text string) (string, error) {
	var buf bytes.Buffer
	if err := summaryPromptTmpl.Execute(&buf, map[string]any{"Text": text}); err != nil {
		return "", goerr.Wrap(err, "failed to execute summary prompt template")
	}

	summary, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	return summary, nil
}

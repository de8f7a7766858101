// Package coordinator decides, per task, which logical agents run and
// how. The agent catalog is fixed and the language model's JSON output
// is validated against typed schemas before anyone acts on it.
package coordinator

import (
	_ "embed"
	"fmt"

	"github.com/m-mizutani/recallos/pkg/adapter"
	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var agentCatalogRaw []byte

// CatalogEntry describes one logical agent available to the planner
type CatalogEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type catalogFile struct {
	Agents []CatalogEntry `yaml:"agents"`
}

func loadCatalog() []CatalogEntry {
	var file catalogFile
	if err := yaml.Unmarshal(agentCatalogRaw, &file); err != nil {
		panic("broken embedded agent catalog: " + err.Error())
	}
	return file.Agents
}

// UseCase provides execution planning and resource negotiation
type UseCase struct {
	gemini  adapter.Gemini
	catalog []CatalogEntry
}

// New creates a new coordinator UseCase instance
func New(gemini adapter.Gemini) *UseCase {
	return &UseCase{
		gemini:  gemini,
		catalog: loadCatalog(),
	}
}

// Catalog returns the fixed agent catalog
func (uc *UseCase) Catalog() []CatalogEntry {
	return uc.catalog
}

// catalogLines formats the catalog for planning prompts
func (uc *UseCase) catalogLines() []string {
	lines := make([]string, 0, len(uc.catalog))
	for i, entry := range uc.catalog {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, entry.Name, entry.Description))
	}
	return lines
}

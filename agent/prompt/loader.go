package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/rewrite.txt
	rewriteRaw string

	//go:embed template/router.txt
	routerRaw string

	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/advisor.txt
	advisorRaw string

	//go:embed template/qa.txt
	qaRaw string

	//go:embed template/backup.txt
	backupRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Rewrite string
	Router  string
	Planner string
	Advisor string
	QA      string
	Backup  string
}

// LoadPromptSet returns the embedded prompts with surrounding whitespace
// trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Rewrite: strings.TrimSpace(rewriteRaw),
		Router:  strings.TrimSpace(routerRaw),
		Planner: strings.TrimSpace(plannerRaw),
		Advisor: strings.TrimSpace(advisorRaw),
		QA:      strings.TrimSpace(qaRaw),
		Backup:  strings.TrimSpace(backupRaw),
	}
}

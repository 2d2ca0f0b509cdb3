package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

//go:embed template/system.txt
var systemRaw string

var systemTmpl = template.Must(template.New("system").Parse(strings.TrimSpace(systemRaw)))

// System renders the system framing for one customer record. This is the
// only place customer data enters the model-visible context outside of
// tool results.
func System(rec contractx.CustomerRecord) (string, error) {
	var b strings.Builder
	if err := systemTmpl.Execute(&b, rec); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return b.String(), nil
}

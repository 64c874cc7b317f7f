package bridge

import (
	"fmt"
	"maps"
	"strings"
	"text/template"
)

// defaultPromptTemplate is used when only a system prompt is configured.
const defaultPromptTemplate = "{{.System}}\n\n{{.Prompt}}"

// PromptTemplate wraps the caller's prompt before it reaches the engine,
// e.g. a persona system prompt, a category line and a trailing turn marker:
//
//	{{.System}}
//
//	Category: {{.Vars.category}}
//	Entry: {{.Prompt}}
//
//	AI:
//
// The zero value passes prompts through unchanged.
type PromptTemplate struct {
	System   string
	Template string
	Vars     map[string]string
}

// PromptData is the value a PromptTemplate renders against.
type PromptData struct {
	System string
	Prompt string
	Vars   map[string]string
}

// Enabled reports whether prompts are rewritten at all.
func (p PromptTemplate) Enabled() bool {
	return strings.TrimSpace(p.System) != "" || strings.TrimSpace(p.Template) != ""
}

// Compile parses the template. A missing Vars key renders as an error, not
// as "<no value>".
func (p PromptTemplate) Compile() (*template.Template, error) {
	src := p.Template
	if strings.TrimSpace(src) == "" {
		src = defaultPromptTemplate
	}
	t, err := template.New("prompt").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("prompt template: %w", err)
	}
	return t, nil
}

// composer renders prompts with a compiled PromptTemplate. A nil composer
// returns prompts unchanged.
type composer struct {
	tmpl   *template.Template
	system string
	vars   map[string]string
}

func newComposer(p PromptTemplate) (*composer, error) {
	if !p.Enabled() {
		return nil, nil
	}
	t, err := p.Compile()
	if err != nil {
		return nil, err
	}
	vars := maps.Clone(p.Vars)
	if vars == nil {
		vars = map[string]string{}
	}
	return &composer{tmpl: t, system: p.System, vars: vars}, nil
}

func (c *composer) compose(prompt string) (string, error) {
	if c == nil {
		return prompt, nil
	}
	var b strings.Builder
	if err := c.tmpl.Execute(&b, PromptData{System: c.system, Prompt: prompt, Vars: c.vars}); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return b.String(), nil
}

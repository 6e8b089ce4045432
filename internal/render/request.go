package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// TemplateData defines the fields available to per-call request templates.
type TemplateData struct {
	// Args are tool arguments.
	Args map[string]any
	// ToolName is the tool name.
	ToolName string
	// CorrelationID links related operations.
	CorrelationID string
}

// RenderTemplate renders a request template written with [[ ]] delimiters.
// Values without delimiters are returned unchanged.
func RenderTemplate(value string, data TemplateData) (string, error) {
	if !strings.Contains(value, "[[") {
		return value, nil
	}
	tmpl, err := template.New("value").Delims("[[", "]]").Funcs(requestFuncs(data)).Parse(value)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template render: %w", err)
	}
	return buf.String(), nil
}

// RenderMap renders every value of values. Entries rendering to an empty
// string are dropped.
func RenderMap(values map[string]string, data TemplateData) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		rendered, err := RenderTemplate(value, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if rendered == "" {
			continue
		}
		out[key] = rendered
	}
	return out, nil
}

func requestFuncs(data TemplateData) template.FuncMap {
	return template.FuncMap{
		"arg": func(name string) any {
			if value, ok := data.Args[name]; ok && value != nil {
				return value
			}
			return ""
		},
		"argOr": func(name string, def any) any {
			if value, ok := data.Args[name]; ok && value != nil {
				return value
			}
			return def
		},
		"required": func(name string) (any, error) {
			value, ok := data.Args[name]
			if !ok || value == nil || value == "" {
				return nil, fmt.Errorf("argument %q is required", name)
			}
			return value, nil
		},
		"json": func(value any) (string, error) {
			out, err := json.Marshal(value)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"join": func(sep string, items []any) string {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				parts = append(parts, fmt.Sprint(item))
			}
			return strings.Join(parts, sep)
		},
	}
}

// Package tool defines the declarative tool descriptors served over JSON-RPC
// and the registry that dispatches to them.
package tool

import (
	"context"
	"strings"
)

// JSON Schema type names accepted in parameter specs.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Handler executes one tool invocation. Params is the decoded JSON params
// object; numeric values arrive as float64.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// ParamSpec declares one parameter of a tool. A spec without a Default is
// required. Description, when empty, is filled from the tool doc's
// "<name>: <text>" lines.
type ParamSpec struct {
	Name        string
	Type        string
	Description string
	Default     any
	Items       string
}

// Tool is a callable unit exposed as the wire method tools/<Name>.
type Tool struct {
	Name        string
	Doc         string
	Params      []ParamSpec
	Handler     Handler
	Annotations map[string]any
}

// Description returns the first non-empty line of the tool doc.
func (t *Tool) Description() string {
	for _, line := range strings.Split(t.Doc, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// InputSchema builds the JSON Schema object describing the tool's parameters.
// Untyped parameters fall back to string; parameters without a default are
// listed as required.
func (t *Tool) InputSchema() map[string]any {
	docs := paramDocs(t.Doc)

	properties := make(map[string]any, len(t.Params))
	var required []string
	for _, p := range t.Params {
		typ := p.Type
		if typ == "" {
			typ = TypeString
		}
		prop := map[string]any{"type": typ}

		desc := p.Description
		if desc == "" {
			desc = docs[p.Name]
		}
		if desc != "" {
			prop["description"] = desc
		}
		if typ == TypeArray {
			items := p.Items
			if items == "" {
				items = TypeString
			}
			prop["items"] = map[string]any{"type": items}
		}
		if p.Default != nil {
			prop["default"] = p.Default
		} else {
			required = append(required, p.Name)
		}
		properties[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// paramDocs extracts "<param>: <text>" lines from a tool doc. Lines whose
// key contains whitespace are prose, not parameter docs.
func paramDocs(doc string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		if text := strings.TrimSpace(rest); text != "" {
			out[key] = text
		}
	}
	return out
}

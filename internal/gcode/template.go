package gcode

import (
	"strings"
)

// TemplateContext holds the key/value pairs a post template renders
// from. String values are truthy when non-empty; booleans render as
// "1" or "" so they can double as substitution values.
type TemplateContext struct {
	entries map[string]templateEntry
}

type templateEntry struct {
	text   string
	truthy bool
}

// NewTemplateContext returns an empty context.
func NewTemplateContext() *TemplateContext {
	return &TemplateContext{entries: make(map[string]templateEntry)}
}

// Set stores a string value. The key is truthy when the value is
// non-empty.
func (c *TemplateContext) Set(key, value string) {
	c.entries[key] = templateEntry{text: value, truthy: value != ""}
}

// SetBool stores a flag rendering as "1" when true and "" when false.
func (c *TemplateContext) SetBool(key string, value bool) {
	text := ""
	if value {
		text = "1"
	}
	c.entries[key] = templateEntry{text: text, truthy: value}
}

// Value returns the stored text for key, or "" when absent.
func (c *TemplateContext) Value(key string) string {
	return c.entries[key].text
}

// Truthy reports whether key holds a truthy value. Missing keys are
// falsy.
func (c *TemplateContext) Truthy(key string) bool {
	return c.entries[key].truthy
}

// Clear removes every entry so the context can be reused.
func (c *TemplateContext) Clear() {
	clear(c.entries)
}

// RenderTemplate expands a post template against the context.
// Supported syntax: {{key}} substitution (missing keys render empty),
// {{#if key}}...{{else}}...{{/if}}, {{#unless key}}...{{/unless}} and
// {{#ifEq key literal}}...{{/ifEq}}. Unmatched closing tags are
// skipped; an unterminated {{ is emitted literally.
func RenderTemplate(tpl string, ctx *TemplateContext) string {
	pos := 0
	result := renderUntil(ctx, tpl, &pos, "")
	return result.body.String()
}

type renderResult struct {
	body     strings.Builder
	elseBody strings.Builder
	hasElse  bool
}

// renderUntil expands tpl from *pos until the closing tag of endTag
// (or the end of input when endTag is empty), splitting output at an
// {{else}} tag belonging to the enclosing conditional.
func renderUntil(ctx *TemplateContext, tpl string, pos *int, endTag string) *renderResult {
	result := &renderResult{}
	active := &result.body

	for *pos < len(tpl) {
		open := strings.Index(tpl[*pos:], "{{")
		if open < 0 {
			active.WriteString(tpl[*pos:])
			*pos = len(tpl)
			break
		}
		open += *pos
		active.WriteString(tpl[*pos:open])
		*pos = open + 2

		closing := strings.Index(tpl[*pos:], "}}")
		if closing < 0 {
			active.WriteString("{{")
			active.WriteString(tpl[*pos:])
			*pos = len(tpl)
			break
		}
		closing += *pos
		tag := strings.TrimSpace(tpl[*pos:closing])
		*pos = closing + 2

		if endTag != "" {
			if tag == "else" && (endTag == "if" || endTag == "unless" || endTag == "ifEq") {
				result.hasElse = true
				active = &result.elseBody
				continue
			}
			if tag == "/"+endTag {
				return result
			}
		}

		if strings.HasPrefix(tag, "#") {
			fields := strings.Fields(tag)
			directive := strings.TrimPrefix(fields[0], "#")
			predicate := strings.TrimSpace(tag[len(fields[0]):])
			appendConditional(active, ctx, directive, predicate, tpl, pos)
			continue
		}

		if strings.HasPrefix(tag, "/") {
			// Unmatched closing tag, skip.
			continue
		}

		active.WriteString(ctx.Value(tag))
	}

	return result
}

// appendConditional consumes the body of a conditional block and
// appends the branch selected by the directive's predicate.
func appendConditional(active *strings.Builder, ctx *TemplateContext, directive, predicate, tpl string, pos *int) {
	nested := renderUntil(ctx, tpl, pos, directive)

	condition := false
	switch directive {
	case "if":
		condition = ctx.Truthy(predicate)
	case "unless":
		condition = !ctx.Truthy(predicate)
	case "ifEq":
		parts := strings.Fields(predicate)
		if len(parts) >= 2 {
			condition = ctx.Value(parts[0]) == parts[1]
		}
	}

	if condition {
		active.WriteString(nested.body.String())
	} else if nested.hasElse {
		active.WriteString(nested.elseBody.String())
	}
}

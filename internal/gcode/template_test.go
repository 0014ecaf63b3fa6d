package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplateSubstitution(t *testing.T) {
	ctx := NewTemplateContext()
	ctx.Set("name", "GRBL")
	ctx.Set("empty", "")

	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{"plain text passes through", "G21 ; units", "G21 ; units"},
		{"token substitutes", "post {{name}} here", "post GRBL here"},
		{"token with padding", "{{ name }}", "GRBL"},
		{"missing key renders empty", "a{{unknown}}b", "ab"},
		{"empty value renders empty", "a{{empty}}b", "ab"},
		{"adjacent tokens", "{{name}}{{name}}", "GRBLGRBL"},
		{"unterminated open is literal", "a{{name", "a{{name"},
		{"stray closing tag is dropped", "a{{/if}}b", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.tpl, ctx); got != tt.want {
				t.Errorf("RenderTemplate(%q) = %q, want %q", tt.tpl, got, tt.want)
			}
		})
	}
}

func TestRenderTemplateConditionals(t *testing.T) {
	ctx := NewTemplateContext()
	ctx.SetBool("on", true)
	ctx.SetBool("off", false)
	ctx.Set("mode", "G90")

	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{"if true keeps body", "{{#if on}}yes{{/if}}", "yes"},
		{"if false drops body", "{{#if off}}yes{{/if}}", ""},
		{"if missing key is false", "{{#if ghost}}yes{{/if}}", ""},
		{"else branch on false", "{{#if off}}yes{{else}}no{{/if}}", "no"},
		{"else branch ignored on true", "{{#if on}}yes{{else}}no{{/if}}", "yes"},
		{"unless inverts", "{{#unless off}}warn{{/unless}}", "warn"},
		{"unless true drops body", "{{#unless on}}warn{{/unless}}", ""},
		{"unless with else", "{{#unless on}}a{{else}}b{{/unless}}", "b"},
		{"ifEq matches literal", "{{#ifEq mode G90}}abs{{/ifEq}}", "abs"},
		{"ifEq mismatch takes else", "{{#ifEq mode G91}}abs{{else}}inc{{/ifEq}}", "inc"},
		{"ifEq without literal is false", "{{#ifEq mode}}abs{{/ifEq}}", ""},
		{"nested conditionals", "{{#if on}}a{{#if off}}b{{else}}c{{/if}}d{{/if}}", "acd"},
		{"substitution inside branch", "{{#if on}}mode={{mode}}{{/if}}", "mode=G90"},
		{"unterminated block keeps selected branch", "{{#if on}}tail", "tail"},
		{"surrounding text kept", "pre {{#if off}}x{{/if}}post", "pre post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.tpl, ctx); got != tt.want {
				t.Errorf("RenderTemplate(%q) = %q, want %q", tt.tpl, got, tt.want)
			}
		})
	}
}

func TestRenderTemplateHeaderShape(t *testing.T) {
	ctx := NewTemplateContext()
	ctx.Set("post_name", "GRBL")
	ctx.Set("unit_code", "G21")
	ctx.SetBool("spindle_requested", true)
	ctx.SetBool("spindle_supported", true)
	ctx.Set("spindle_on_code", "M3")
	ctx.Set("spindle_speed", "10000")

	tpl := "({{post_name}})\n{{unit_code}}\n" +
		"{{#if spindle_requested}}{{#if spindle_supported}}{{spindle_on_code}} S{{spindle_speed}}\n" +
		"{{else}}(no spindle)\n{{/if}}{{/if}}"
	assert.Equal(t, "(GRBL)\nG21\nM3 S10000\n", RenderTemplate(tpl, ctx))

	ctx.SetBool("spindle_supported", false)
	assert.Equal(t, "(GRBL)\nG21\n(no spindle)\n", RenderTemplate(tpl, ctx))
}

func TestTemplateContextValues(t *testing.T) {
	ctx := NewTemplateContext()
	ctx.Set("text", "abc")
	ctx.Set("blank", "")
	ctx.SetBool("yes", true)
	ctx.SetBool("no", false)

	assert.Equal(t, "abc", ctx.Value("text"))
	assert.Equal(t, "", ctx.Value("missing"))
	assert.Equal(t, "1", ctx.Value("yes"))
	assert.Equal(t, "", ctx.Value("no"))

	assert.True(t, ctx.Truthy("text"))
	assert.False(t, ctx.Truthy("blank"))
	assert.True(t, ctx.Truthy("yes"))
	assert.False(t, ctx.Truthy("no"))
	assert.False(t, ctx.Truthy("missing"))

	ctx.Clear()
	assert.False(t, ctx.Truthy("text"))
	assert.Equal(t, "", ctx.Value("text"))
}

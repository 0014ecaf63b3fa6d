package gcode

// NewGRBLPost returns the post for GRBL hobby controllers. Output uses
// CRLF line endings and parenthesis comments, arcs are emitted as
// G2/G3 when a chord tolerance is set, and the footer retracts to the
// machine safe height before ending the program.
func NewGRBLPost() Post {
	return &dialectPost{d: dialect{
		name:          "GRBL",
		fileExtension: ".gcode",
		newline:       "\r\n",

		supportsArcs: true,
		hasSpindle:   true,

		positioningMode: "G90",
		spindleOnCode:   "M3",
		spindleOffCode:  "M5",
		programEndCode:  "M2",

		header: "(AIToolpathGenerator - {{post_name}} Post)\r\n" +
			"{{unit_code}} ; units\r\n" +
			"{{positioning_mode}} ; absolute positioning\r\n" +
			"{{machine_summary}}\r\n" +
			"{{#if spindle_requested}}" +
			"{{#if spindle_supported}}{{spindle_on_code}} S{{spindle_speed}} ; spindle on\r\n" +
			"{{else}}(Spindle requested but not supported)\r\n{{/if}}" +
			"{{/if}}",

		footer: "G0 Z{{safe_z}}\r\n" +
			"{{#if spindle_supported}}{{spindle_off_code}} ; spindle off\r\n{{/if}}" +
			"{{program_end_code}}\r\n",
	}}
}

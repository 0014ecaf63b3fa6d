package gcode

// NewFanucPost returns the post for Fanuc-style industrial controls.
// Programs are framed with % markers and an O-number, open with the
// usual safety line (work offset, plane, positioning, feed mode), and
// close with M30.
func NewFanucPost() Post {
	return &dialectPost{d: dialect{
		name:          "Fanuc",
		fileExtension: ".nc",
		newline:       "\r\n",

		supportsArcs: true,
		hasSpindle:   true,

		positioningMode: "G90",
		planeCode:       "G17",
		feedMode:        "G94",
		workOffset:      "G54",
		spindleOnCode:   "M3",
		spindleOffCode:  "M5",
		programEndCode:  "M30",

		header: "%\r\n" +
			"O0001 (AIToolpathGenerator - {{post_name}} Post)\r\n" +
			"{{work_offset}} {{plane_code}} {{positioning_mode}} {{feed_mode}}\r\n" +
			"{{unit_code}}\r\n" +
			"{{machine_summary}}\r\n" +
			"{{#if spindle_requested}}" +
			"{{#if spindle_supported}}{{spindle_on_code}} S{{spindle_speed}}\r\n" +
			"{{else}}(Spindle requested but not supported)\r\n{{/if}}" +
			"{{/if}}",

		footer: "{{#if spindle_supported}}{{spindle_off_code}}\r\n{{/if}}" +
			"{{program_end_code}}\r\n" +
			"%\r\n",
	}}
}

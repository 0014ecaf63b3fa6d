package gcode

// NewHeidenhainPost returns the post for Heidenhain conversational
// controls. Moves are written as L blocks with an inline feed (FMAX
// for rapids), the program is framed by BEGIN PGM / END PGM, and arcs
// are always linearized because the emitter does not speak the CC/C
// circle syntax.
func NewHeidenhainPost() Post {
	return &dialectPost{d: dialect{
		name:          "Heidenhain",
		fileExtension: ".h",
		newline:       "\n",

		conversational: true,
		supportsArcs:   false,
		hasSpindle:     true,

		spindleOnCode:  "M3",
		spindleOffCode: "M5",
		programEndCode: "END PGM",

		header: "BEGIN PGM AI{{post_name}} {{unit_keyword}}\n" +
			"; Machine: {{machine_plain}}\n" +
			"; Rapid {{rapid_feed}} {{unit_suffix}}, Max feed {{max_feed}} {{unit_suffix}}\n" +
			"; Feed {{feed_rate}} {{unit_suffix}}\n" +
			"{{#if spindle_requested}}; Spindle {{spindle_speed}} RPM (program with TOOL CALL)\n{{/if}}" +
			"; Arcs emitted as linear moves\n",

		footer: "{{#if spindle_requested}}; {{spindle_off_code}} (stop spindle)\n{{/if}}" +
			"{{program_end_code}} AI{{post_name}} {{unit_keyword}}\n",

		stepBlock: "; Step {{step_number}}: {{step_label}} ({{pass_kind}}), " +
			"stepover {{stepover_mm}} mm, stepdown {{stepdown_mm}} mm" +
			"{{#if has_angle}}, angle {{angle_deg}} deg{{/if}}",
	}}
}

package gcode

// NewMarlinPost returns the post for Marlin firmware as found on
// converted 3D printers and hobby routers. Marlin has no spindle
// output, so a requested spindle speed becomes a comment warning, and
// all comments use semicolons since Marlin does not strip parentheses.
func NewMarlinPost() Post {
	return &dialectPost{d: dialect{
		name:          "Marlin",
		fileExtension: ".gcode",
		newline:       "\n",

		supportsArcs: true,
		hasSpindle:   false,

		positioningMode: "G90",
		programEndCode:  "M84",

		header: "; AIToolpathGenerator - {{post_name}} Post\n" +
			"{{unit_code}} ; units\n" +
			"{{positioning_mode}} ; absolute positioning\n" +
			"; {{machine_summary}}\n" +
			"{{#if spindle_requested}}; Requested spindle {{spindle_speed}} RPM but controller has no spindle\n{{/if}}" +
			"{{#if arcs_enabled}}; Arcs enabled (G2/G3)\n" +
			"{{else}}; Arcs disabled (linearized)\n{{/if}}",

		footer: "M400 ; wait for moves to finish\n" +
			"{{program_end_code}} ; disable motors\n",

		stepBlock: "; STEP {{step_number}} {{step_label}} {{pass_kind}} " +
			"stepover={{stepover_mm}}mm stepdown={{stepdown_mm}}mm" +
			"{{#if has_angle}} angle={{angle_deg}}deg{{/if}}",
	}}
}

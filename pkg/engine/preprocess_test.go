package engine

import "testing"

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(stl "a.stl" :scale 2)`, `(stl "a.stl" "__kw_scale" 2)`},
		{"multiple keywords", `(cylinder :radius 4 :height 8)`, `(cylinder "__kw_radius" 4 "__kw_height" 8)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"say \":x\"" :y`, `"say \":x\"" "__kw_y"`},
		{"backtick string preserved", "`raw :kw-thing`", "`raw :kw-thing`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def peg-height 12)`, `(def peg_height 12)`},
		{"hyphen in keyword preserved", `(settings :layer-height 0.2)`, `(settings "__kw_layer-height" 0.2)`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative literal preserved", `(vec3 -10 0 -2.5)`, `(vec3 -10 0 -2.5)`},
		{"subtraction of symbols", `(- a b)`, `(- a b)`},
		{"comment converted", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", "; simple\n(box 1 1 1)", "// simple\n(box 1 1 1)"},
		{"trailing comment", `(box 1 1 1) ; cube`, `(box 1 1 1) // cube`},
		{"unterminated string", `"open :kw`, `"open :kw`},
		{"lone colon", `: x`, `: x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

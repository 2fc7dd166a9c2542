package layer

import "testing"

func TestParseStyle(t *testing.T) {
	cases := []struct {
		in   string
		want textStyle
	}{
		{"", textStyle{}},
		{"b", textStyle{bold: true}},
		{"biu", textStyle{bold: true, italic: true, underline: true}},
		{"ub", textStyle{bold: true, underline: true}},
		{"x", textStyle{}}, // unknown chars ignored
	}
	for _, c := range cases {
		if got := parseStyle(c.in); got != c.want {
			t.Errorf("parseStyle(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestResolveFontPathAbsolute(t *testing.T) {
	if got := resolveFontPath("/opt/fonts/a.ttf", "/usr/share/fonts"); got != "/opt/fonts/a.ttf" {
		t.Errorf("resolveFontPath absolute = %q", got)
	}
}

func TestResolveFontPathRelative(t *testing.T) {
	got := resolveFontPath("dejavu/Sans.ttf", "/usr/share/fonts")
	want := "/usr/share/fonts/dejavu/Sans.ttf"
	if got != want {
		t.Errorf("resolveFontPath relative = %q, want %q", got, want)
	}
}

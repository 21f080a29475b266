package extract

import "testing"

func TestParseFactRewrite(t *testing.T) {
	cases := []struct {
		raw      string
		want     string
		wantSave bool
	}{
		{"none", "", false},
		{"None", "", false},
		{"  NONE  ", "", false},
		{"", "", false},
		{"   \n ", "", false},
		{"Lives alone in Leeds. Takes metformin daily.", "Lives alone in Leeds. Takes metformin daily.", true},
		{"  padded rewrite  ", "padded rewrite", true},
	}

	for _, tc := range cases {
		got, save := ParseFactRewrite(tc.raw)
		if save != tc.wantSave || got != tc.want {
			t.Errorf("ParseFactRewrite(%q) = (%q, %v), want (%q, %v)", tc.raw, got, save, tc.want, tc.wantSave)
		}
	}
}

package reminders

import (
	"reflect"
	"testing"
)

func TestParseTag(t *testing.T) {
	cases := []struct {
		raw    string
		want   Tag
		wantOK bool
	}{
		{"MEDICATION", TagMedication, true},
		{"medication", TagMedication, true},
		{"  Appointment  ", TagAppointment, true},
		{"GARDENING", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseTag(tc.raw)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseTag(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestParseTags(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []Tag
	}{
		{"single", "HEALTH", []Tag{TagHealth}},
		{"multiple mixed case", "health, Social", []Tag{TagHealth, TagSocial}},
		{"duplicates collapsed", "HEALTH, health, HEALTH", []Tag{TagHealth}},
		{"unrecognized skipped", "HEALTH, GARDENING", []Tag{TagHealth}},
		{"all unrecognized", "GARDENING, COOKING", []Tag{TagOther}},
		{"empty", "", []Tag{TagOther}},
		{"whitespace", "   ", []Tag{TagOther}},
		{"null literal", "null", []Tag{TagOther}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseTags(tc.raw); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseTags(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

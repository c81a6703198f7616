package annotation

import "testing"

func TestParseTag(t *testing.T) {
	tests := []struct {
		label string
		want  Tag
		group Group
	}{
		{"YA", TagSpelling, GroupOrthography},
		{" NO ", TagPunctuation, GroupOrthography},
		{"Dİ", TagDiacritics, GroupOrthography},
		{"DI\u0307", TagDiacritics, GroupOrthography}, // decomposed
		{"ÜzY", TagConsonantVoicing, GroupMorphophonology},
		{"KİP", TagMood, GroupGrammar},
		{"DİJ", TagDigitalization, GroupOther},
		{"HN", TagUnknown, GroupNone},
		{"", TagUnknown, GroupNone},
	}
	for _, tt := range tests {
		got := ParseTag(tt.label)
		if got != tt.want {
			t.Errorf("ParseTag(%q) = %v, want %v", tt.label, got, tt.want)
		}
		if got.Group() != tt.group {
			t.Errorf("ParseTag(%q).Group() = %v, want %v", tt.label, got.Group(), tt.group)
		}
	}
}

func TestTagsRoundTrip(t *testing.T) {
	tags := Tags()
	if len(tags) != 37 {
		t.Fatalf("got %d tags, want 37", len(tags))
	}
	seen := map[string]bool{}
	for _, tag := range tags {
		if seen[tag.Code()] {
			t.Fatalf("duplicate code %q", tag.Code())
		}
		seen[tag.Code()] = true
		if ParseTag(tag.Code()) != tag {
			t.Errorf("ParseTag(%q) != %v", tag.Code(), tag)
		}
		if tag.Group() == GroupNone {
			t.Errorf("%v has no group", tag)
		}
	}
}

package domain

import "testing"

func TestPropertiesSubstitute(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
		text  string
		want  string
	}{
		{
			name:  "single property",
			props: Properties{{Name: "name", Value: "Ada"}},
			text:  "Hello [name]!",
			want:  "Hello Ada!",
		},
		{
			name:  "every occurrence",
			props: Properties{{Name: "x", Value: "1"}},
			text:  "[x]+[x]=[x][x]",
			want:  "1+1=11",
		},
		{
			name:  "unknown reference left alone",
			props: Properties{{Name: "name", Value: "Ada"}},
			text:  "Hello [other]",
			want:  "Hello [other]",
		},
		{
			name: "output is not rescanned",
			props: Properties{
				{Name: "name", Value: "[other]"},
				{Name: "other", Value: "surprise"},
			},
			text: "Hello [name]!",
			want: "Hello [other]!",
		},
		{
			name:  "self reference does not expand forever",
			props: Properties{{Name: "loop", Value: "[loop][loop]"}},
			text:  "[loop]",
			want:  "[loop][loop]",
		},
		{
			name:  "empty input",
			props: Properties{{Name: "name", Value: "Ada"}},
			text:  "",
			want:  "",
		},
		{
			name:  "no properties",
			props: nil,
			text:  "Hello [name]",
			want:  "Hello [name]",
		},
		{
			name:  "unterminated bracket",
			props: Properties{{Name: "name", Value: "Ada"}},
			text:  "Hello [name",
			want:  "Hello [name",
		},
		{
			name:  "multi-byte text",
			props: Properties{{Name: "héros", Value: "Zoé"}},
			text:  "Bonjour [héros] ✨",
			want:  "Bonjour Zoé ✨",
		},
		{
			name: "list order wins at the same position",
			props: Properties{
				{Name: "a", Value: "first"},
				{Name: "a", Value: "second"},
			},
			text: "[a]",
			want: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.props.Substitute(tt.text); got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPropertiesLookup(t *testing.T) {
	props := Properties{{Name: "gold", Value: "15"}}

	if v, ok := props.Lookup("gold"); !ok || v != "15" {
		t.Errorf("expected 15, got %q (found=%v)", v, ok)
	}
	if _, ok := props.Lookup("silver"); ok {
		t.Error("expected silver not to be found")
	}
}

func TestPropertiesClone(t *testing.T) {
	props := Properties{{Name: "gold", Value: "15"}}
	clone := props.Clone()
	clone[0].Value = "0"

	if props[0].Value != "15" {
		t.Error("expected original to be unchanged")
	}
	if Properties(nil).Clone() != nil {
		t.Error("expected nil clone of nil")
	}
}

func TestPropertiesMap(t *testing.T) {
	m := Properties{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}.Map()
	if len(m) != 2 || m["a"] != "1" || m["b"] != "2" {
		t.Errorf("unexpected map: %v", m)
	}
}

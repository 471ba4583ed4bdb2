package ai

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type explanation struct {
		Summary string `json:"summary"`
		Hops    int    `json:"hops,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  explanation
	}{
		{
			name:  "valid json object",
			input: `{"summary":"direct coverage link"}`,
			want:  explanation{Summary: "direct coverage link"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{summary: 'direct coverage link'}`,
			want:  explanation{Summary: "direct coverage link"},
		},
		{
			name:  "trailing comma",
			input: `{"summary":"direct coverage link",}`,
			want:  explanation{Summary: "direct coverage link"},
		},
		{
			name:  "missing endbracket",
			input: `{"summary":"direct coverage link`,
			want:  explanation{Summary: "direct coverage link"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{summary: 'direct coverage link'}"`,
			want:  explanation{Summary: "direct coverage link"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"summary\": \"direct coverage link\"\n}\n",
			want:  explanation{Summary: "direct coverage link"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got explanation
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Summary != tc.want.Summary || got.Hops != tc.want.Hops {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	type step struct {
		Relationship string `json:"relationship"`
	}

	input := `[{relationship:'authored_by'},{relationship:'covers',}]`
	var got []step
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Relationship != "authored_by" || got[1].Relationship != "covers" {
		t.Fatalf("UnmarshalFlexible() got = %+v, want two steps", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type explanation struct {
		Summary string `json:"summary"`
	}

	var got explanation
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestUnmarshalFlexible_StringifiedWithNewlines(t *testing.T) {
	type explanation struct {
		Summary string   `json:"summary"`
		Steps   []string `json:"steps"`
	}

	input := `"{\n  \"summary\": \"two-hop connection\",\n  \"steps\": [\"journalist authored the piece\", \"the piece covers the topic\"]\n  }\n"`
	want := explanation{
		Summary: "two-hop connection",
		Steps:   []string{"journalist authored the piece", "the piece covers the topic"},
	}

	var got explanation
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got.Summary != want.Summary || len(got.Steps) != len(want.Steps) {
		t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, want)
	}
	for i := range got.Steps {
		if got.Steps[i] != want.Steps[i] {
			t.Fatalf("UnmarshalFlexible() steps[%d] = %q, want %q", i, got.Steps[i], want.Steps[i])
		}
	}
}

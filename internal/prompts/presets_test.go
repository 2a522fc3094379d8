package prompts

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestBuiltInPresetsAreValid(t *testing.T) {
	presets := BuiltIn()
	if len(presets) == 0 {
		t.Fatal("no built-in presets")
	}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			t.Errorf("built-in preset %q invalid: %v", p.Name, err)
		}
	}
	if _, ok := Find(presets, "Descriptive"); !ok {
		t.Fatal("Descriptive preset missing")
	}
	if _, ok := Find(presets, "nope"); ok {
		t.Fatal("Find matched a missing name")
	}
}

func TestSystemPrompt_LengthCap(t *testing.T) {
	withCap := SystemPrompt(Preset{Name: "x", Prompt: "p", MaxLength: 120})
	if !strings.Contains(withCap, "120 characters") {
		t.Fatalf("length cap missing: %q", withCap)
	}
	without := SystemPrompt(Preset{Name: "x", Prompt: "p"})
	if strings.Contains(without, "characters") {
		t.Fatalf("unexpected length cap: %q", without)
	}
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"NotJSON", "{", "unexpected"},
		{"EmptyName", `[{"name": " ", "prompt": "p"}]`, "name is empty"},
		{"EmptyPrompt", `[{"name": "a", "prompt": ""}]`, "prompt is empty"},
		{"NegativeMax", `[{"name": "a", "prompt": "p", "max_length": -1}]`, "invalid max_length"},
		{"Duplicate", `[{"name": "a", "prompt": "p"}, {"name": "a", "prompt": "q"}]`, "duplicate preset name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != "unexpected" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	in := []Preset{
		{Name: "Mine", Prompt: "describe it briefly", MaxLength: 80},
	}
	if err := SaveFile(path, in); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	out, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveFile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	if err := SaveFile(path, []Preset{{Name: "", Prompt: "p"}}); err == nil {
		t.Fatal("expected validation error")
	}
}

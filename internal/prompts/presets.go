// Package prompts manages caption style presets.
package prompts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/oukeidos/capt/internal/files"
)

// Preset is one caption style: the instruction sent with every image.
type Preset struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	// MaxLength caps the caption at this many characters (grapheme
	// clusters). 0 means no cap.
	MaxLength int `json:"max_length,omitempty"`
}

// BuiltIn returns the presets shipped with the app.
func BuiltIn() []Preset {
	return []Preset{
		{
			Name:      "Descriptive",
			Prompt:    "Describe this image in one or two natural sentences. Mention the main subject, the setting, and any notable action.",
			MaxLength: 0,
		},
		{
			Name:      "Alt text",
			Prompt:    "Write concise alt text for this image: one short sentence covering the essential content for a screen reader user.",
			MaxLength: 160,
		},
		{
			Name:      "Training tags",
			Prompt:    "Describe this image as a comma-separated list of short lowercase tags, most important first. No sentences, no trailing period.",
			MaxLength: 0,
		},
		{
			Name:      "Detailed",
			Prompt:    "Describe this image thoroughly: subjects, appearance, setting, lighting, composition, and mood. Use plain factual language.",
			MaxLength: 0,
		},
	}
}

// SystemPrompt builds the system instruction for a preset.
func SystemPrompt(p Preset) string {
	var sb strings.Builder
	sb.WriteString("You write captions for images.\n")
	sb.WriteString("Respond with the caption text only: no preamble, no quotes, no markdown.\n")
	if p.MaxLength > 0 {
		fmt.Fprintf(&sb, "The caption must be at most %d characters long.\n", p.MaxLength)
	}
	return sb.String()
}

// Find returns the preset with the given name.
func Find(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Validate checks a preset before saving.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preset name is empty")
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("preset prompt is empty")
	}
	if p.MaxLength < 0 {
		return fmt.Errorf("invalid max_length: %d", p.MaxLength)
	}
	return nil
}

// Encode serializes presets for storage.
func Encode(presets []Preset) ([]byte, error) {
	return json.MarshalIndent(presets, "", "  ")
}

// Decode parses stored presets and validates each entry.
func Decode(data []byte) ([]Preset, error) {
	var presets []Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(presets))
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate preset name: %s", p.Name)
		}
		seen[p.Name] = true
	}
	return presets, nil
}

// LoadFile reads user presets from a JSON file.
func LoadFile(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", path, err)
	}
	presets, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}
	return presets, nil
}

// SaveFile writes user presets atomically.
func SaveFile(path string, presets []Preset) error {
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	data, err := Encode(presets)
	if err != nil {
		return err
	}
	return files.AtomicWrite(path, data, 0o600)
}

// Package profile loads the support assistant's persona: the system
// instruction sent on every exchange, the fixed strings shown in the chat,
// and the backend's menu convention.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Profile is the configurable half of the chat engine.
type Profile struct {
	AssistantName     string `yaml:"assistant_name"`
	Welcome           string `yaml:"welcome"`
	SystemInstruction string `yaml:"system_instruction"`
	MessagePrefix     string `yaml:"message_prefix"`
	FallbackReply     string `yaml:"fallback_reply"`
	ServiceErrorReply string `yaml:"service_error_reply"`
	ExhaustedBanner   string `yaml:"exhausted_banner"`
	GenericBanner     string `yaml:"generic_banner"`
	HandoffPhrase     string `yaml:"handoff_phrase"`
	Grounding         bool   `yaml:"grounding"`
	Menu              Menu   `yaml:"menu"`
}

// Menu describes how the backend encodes selectable options in reply text.
type Menu struct {
	Markers       []string `yaml:"markers"`
	HintOptions   int      `yaml:"hint_options"`
	MaxOptions    int      `yaml:"max_options"`
	OrdinalSuffix string   `yaml:"ordinal_suffix"`
}

// Default returns the embedded ConnectCom profile.
func Default() *Profile {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("profile: embedded default is invalid: %v", err))
	}
	return p
}

// Load reads a YAML profile from path. Fields missing from the file keep the
// embedded defaults. An empty path returns Default().
func Load(path string) (*Profile, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays data onto the embedded defaults and validates the result.
func Parse(data []byte) (*Profile, error) {
	p := &Profile{}
	if err := yaml.Unmarshal(defaultYAML, p); err != nil {
		return nil, fmt.Errorf("profile: parse default: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("profile: parse: %w", err)
		}
	}
	p.SystemInstruction = strings.TrimSpace(p.SystemInstruction)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the fields the chat engine cannot run without.
func (p *Profile) Validate() error {
	switch {
	case strings.TrimSpace(p.Welcome) == "":
		return errors.New("profile: welcome is required")
	case p.SystemInstruction == "":
		return errors.New("profile: system_instruction is required")
	case strings.TrimSpace(p.FallbackReply) == "":
		return errors.New("profile: fallback_reply is required")
	case strings.TrimSpace(p.ServiceErrorReply) == "":
		return errors.New("profile: service_error_reply is required")
	case len(p.Menu.Markers) == 0:
		return errors.New("profile: menu.markers must not be empty")
	}
	for _, m := range p.Menu.Markers {
		if m == "" {
			return errors.New("profile: menu.markers contains an empty marker")
		}
	}
	if p.Menu.HintOptions < 0 || p.Menu.MaxOptions < 0 {
		return errors.New("profile: menu option counts must not be negative")
	}
	return nil
}

package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalYAML(t *testing.T) {
	t.Parallel()

	var out struct {
		Tick Duration `yaml:"tick"`
	}
	if err := yaml.Unmarshal([]byte("tick: 2s\n"), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Tick.Std() != 2*time.Second {
		t.Fatalf("expected 2s, got %v", out.Tick.Std())
	}
}

func TestDurationUnmarshalYAMLInvalid(t *testing.T) {
	t.Parallel()

	var out struct {
		Tick Duration `yaml:"tick"`
	}
	if err := yaml.Unmarshal([]byte("tick: notaduration\n"), &out); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestDurationZeroWhenAbsent(t *testing.T) {
	t.Parallel()

	var out struct {
		Tick Duration `yaml:"tick"`
	}
	if err := yaml.Unmarshal([]byte("{}\n"), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Tick != 0 {
		t.Fatalf("expected zero duration, got %v", out.Tick.Std())
	}
}

package lang

import (
	"reflect"
	"testing"

	"minoj/internal/judge/model"
	appErr "minoj/pkg/errors"
)

func TestResolveCompiledLanguage(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	plan, err := r.Resolve(model.LangCpp, "/tmp/job-1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if plan.Kind != PlanCompiled {
		t.Errorf("Kind = %v, want PlanCompiled", plan.Kind)
	}
	if plan.SourceFile != "main.cpp" {
		t.Errorf("SourceFile = %q", plan.SourceFile)
	}
	wantCompile := []string{"g++", "-O2", "-std=c++17", "-o", "/tmp/job-1/main", "/tmp/job-1/main.cpp"}
	if !reflect.DeepEqual(plan.Compile, wantCompile) {
		t.Errorf("Compile = %v, want %v", plan.Compile, wantCompile)
	}
	if !reflect.DeepEqual(plan.Run, []string{"/tmp/job-1/main"}) {
		t.Errorf("Run = %v", plan.Run)
	}
	if plan.TimeMultiplier != 1.0 {
		t.Errorf("TimeMultiplier = %v", plan.TimeMultiplier)
	}
}

func TestResolveInterpretedLanguage(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	plan, err := r.Resolve(model.LangPython, "/tmp/job-2")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if plan.Kind != PlanInterpreted {
		t.Errorf("Kind = %v, want PlanInterpreted", plan.Kind)
	}
	if len(plan.Compile) != 0 {
		t.Errorf("interpreted plan has compile step: %v", plan.Compile)
	}
	if !reflect.DeepEqual(plan.Run, []string{"python3", "/tmp/job-2/main.py"}) {
		t.Errorf("Run = %v", plan.Run)
	}
	if plan.TimeMultiplier != 3.0 {
		t.Errorf("TimeMultiplier = %v", plan.TimeMultiplier)
	}
}

func TestResolveJavaUsesClassNaming(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	plan, err := r.Resolve(model.LangJava, "/tmp/job-3")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if plan.SourceFile != "Main.java" {
		t.Errorf("SourceFile = %q, want Main.java", plan.SourceFile)
	}
	wantRun := []string{"java", "-cp", "/tmp/job-3", "Main"}
	if !reflect.DeepEqual(plan.Run, wantRun) {
		t.Errorf("Run = %v, want %v", plan.Run, wantRun)
	}
	if plan.TimeMultiplier != 2.0 {
		t.Errorf("TimeMultiplier = %v", plan.TimeMultiplier)
	}
}

func TestResolveUnknownLanguage(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	_, err := r.Resolve(model.Language("brainfuck"), "/tmp")
	if appErr.GetCode(err) != appErr.LanguageNotSupported {
		t.Fatalf("Resolve(unknown) code = %d, want LanguageNotSupported", appErr.GetCode(err))
	}
}

func TestResolveAppliesOverrides(t *testing.T) {
	t.Parallel()

	r := NewResolver(&Config{Overrides: map[string]Override{
		"python": {
			Run:            `pypy3 -O "{src}"`,
			TimeMultiplier: 2.5,
		},
	}})
	plan, err := r.Resolve(model.LangPython, "/tmp/job-4")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(plan.Run, []string{"pypy3", "-O", "/tmp/job-4/main.py"}) {
		t.Errorf("Run = %v", plan.Run)
	}
	if plan.TimeMultiplier != 2.5 {
		t.Errorf("TimeMultiplier = %v", plan.TimeMultiplier)
	}
}

func TestResolveKeepsSpacedPathsIntact(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	plan, err := r.Resolve(model.LangC, "/tmp/job dir")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	found := false
	for _, arg := range plan.Compile {
		if arg == "/tmp/job dir/main.c" {
			found = true
		}
	}
	if !found {
		t.Errorf("spaced path split across args: %v", plan.Compile)
	}
}

func TestResolveIgnoresOverrideForUnknownLanguage(t *testing.T) {
	t.Parallel()

	r := NewResolver(&Config{Overrides: map[string]Override{
		"cobol": {Run: "cobc {src}"},
	}})
	if _, err := r.Resolve(model.Language("cobol"), "/tmp"); err == nil {
		t.Fatal("override must not introduce new languages")
	}
}

// Package lang maps submission languages onto concrete compile and run plans.
package lang

import (
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	"minoj/internal/judge/model"
	appErr "minoj/pkg/errors"
)

// PlanKind distinguishes languages that need a compile step from ones that
// run straight from source.
type PlanKind int

const (
	PlanCompiled PlanKind = iota
	PlanInterpreted
)

// Plan is the resolved execution recipe for one language in one workspace.
// Compile is empty exactly when Kind is PlanInterpreted.
type Plan struct {
	Kind           PlanKind
	Language       model.Language
	SourceFile     string
	Compile        []string
	Run            []string
	TimeMultiplier float64
}

// template is a language's unresolved command set. Commands use {src}, {bin}
// and {dir} placeholders, expanded per workspace at resolve time.
type template struct {
	sourceFile     string
	compile        string
	run            string
	timeMultiplier float64
}

// Interpreted runtimes get a larger multiplier so the same nominal limit is
// usable across languages.
var defaults = map[model.Language]template{
	model.LangC: {
		sourceFile:     "main.c",
		compile:        "gcc -O2 -std=c11 -o {bin} {src} -lm",
		run:            "{bin}",
		timeMultiplier: 1.0,
	},
	model.LangCpp: {
		sourceFile:     "main.cpp",
		compile:        "g++ -O2 -std=c++17 -o {bin} {src}",
		run:            "{bin}",
		timeMultiplier: 1.0,
	},
	model.LangJava: {
		sourceFile:     "Main.java",
		compile:        "javac -encoding UTF-8 {src}",
		run:            "java -cp {dir} Main",
		timeMultiplier: 2.0,
	},
	model.LangPython: {
		sourceFile:     "main.py",
		run:            "python3 {src}",
		timeMultiplier: 3.0,
	},
	model.LangJavaScript: {
		sourceFile:     "main.js",
		run:            "node {src}",
		timeMultiplier: 3.0,
	},
}

// Override replaces parts of a language's default template via config.
type Override struct {
	Compile        string  `yaml:"compile"`
	Run            string  `yaml:"run"`
	TimeMultiplier float64 `yaml:"timeMultiplier"`
}

// Config carries per-language command overrides, keyed by language name.
type Config struct {
	Overrides map[string]Override `yaml:"overrides"`
}

// Resolver turns (language, workspace) pairs into executable plans.
type Resolver struct {
	templates map[model.Language]template
}

// NewResolver builds a resolver from the defaults and optional overrides.
func NewResolver(cfg *Config) *Resolver {
	templates := make(map[model.Language]template, len(defaults))
	for language, tpl := range defaults {
		templates[language] = tpl
	}
	if cfg != nil {
		for name, override := range cfg.Overrides {
			language := model.Language(name)
			tpl, ok := templates[language]
			if !ok {
				continue
			}
			if override.Compile != "" {
				tpl.compile = override.Compile
			}
			if override.Run != "" {
				tpl.run = override.Run
			}
			if override.TimeMultiplier > 0 {
				tpl.timeMultiplier = override.TimeMultiplier
			}
			templates[language] = tpl
		}
	}
	return &Resolver{templates: templates}
}

// Resolve returns the plan for language with placeholders expanded against
// dir. Placeholder substitution happens after tokenization so paths with
// spaces stay single arguments.
func (r *Resolver) Resolve(language model.Language, dir string) (*Plan, error) {
	tpl, ok := r.templates[language]
	if !ok {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", language)
	}

	src := filepath.Join(dir, tpl.sourceFile)
	bin := filepath.Join(dir, "main")

	run, err := expand(tpl.run, src, bin, dir)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "bad run command for %s", language)
	}

	plan := &Plan{
		Kind:           PlanInterpreted,
		Language:       language,
		SourceFile:     tpl.sourceFile,
		Run:            run,
		TimeMultiplier: tpl.timeMultiplier,
	}
	if tpl.compile != "" {
		compile, err := expand(tpl.compile, src, bin, dir)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "bad compile command for %s", language)
		}
		plan.Kind = PlanCompiled
		plan.Compile = compile
	}
	return plan, nil
}

func expand(command, src, bin, dir string) ([]string, error) {
	tokens, err := shlex.Split(command)
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ReplaceAll(token, "{src}", src)
		token = strings.ReplaceAll(token, "{bin}", bin)
		token = strings.ReplaceAll(token, "{dir}", dir)
		args = append(args, token)
	}
	return args, nil
}

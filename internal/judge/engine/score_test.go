package engine

import (
	"testing"

	"minoj/internal/judge/model"
)

func TestNormalizeOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "3", "3"},
		{"trailing newline", "3\n", "3"},
		{"crlf", "1\r\n2\r\n", "1\n2"},
		{"trailing spaces per line", "a  \nb\t\n", "a\nb"},
		{"leading and trailing blank lines", "\n\nx\n\n", "x"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeOutput(tt.in); got != tt.want {
				t.Errorf("NormalizeOutput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeOutputIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"a \r\nb\n", "x", " spaced  out \n\n", ""}
	for _, in := range inputs {
		once := NormalizeOutput(in)
		if twice := NormalizeOutput(once); twice != once {
			t.Errorf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestBuildGroupsContiguousCover(t *testing.T) {
	t.Parallel()

	cases := []model.TestCase{
		{GroupName: "samples", IsHidden: false, Score: 10},
		{GroupName: "samples", IsHidden: false, Score: 10},
		{GroupName: "samples", IsHidden: true, Score: 20},
		{GroupName: "main", IsHidden: true, Score: 30},
		{GroupName: "main", IsHidden: true, Score: 30},
		// Same name as the first group but separated: must not merge.
		{GroupName: "samples", IsHidden: false, Score: 5},
	}
	groups := BuildGroups(cases)

	if len(groups) != 4 {
		t.Fatalf("groups = %d, want 4: %+v", len(groups), groups)
	}

	// Ranges must be contiguous, non-overlapping and cover 1..len exactly.
	next := 1
	for _, g := range groups {
		if g.Start != next {
			t.Errorf("group %+v starts at %d, want %d", g, g.Start, next)
		}
		if g.End < g.Start {
			t.Errorf("group %+v has inverted range", g)
		}
		if g.TotalCases != g.End-g.Start+1 {
			t.Errorf("group %+v TotalCases inconsistent with range", g)
		}
		next = g.End + 1
	}
	if next != len(cases)+1 {
		t.Errorf("groups cover up to %d, want %d", next-1, len(cases))
	}

	if groups[0].MaxScore != 20 || groups[1].MaxScore != 20 || groups[2].MaxScore != 60 || groups[3].MaxScore != 5 {
		t.Errorf("group max scores wrong: %+v", groups)
	}
}

func TestBuildGroupsEmpty(t *testing.T) {
	t.Parallel()

	if groups := BuildGroups(nil); len(groups) != 0 {
		t.Errorf("BuildGroups(nil) = %+v, want empty", groups)
	}
}

func TestFinalVerdictPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                     string
		total, max, failed       int
		sawTimeout, sawRuntime   bool
		want                     model.Verdict
	}{
		{"full score", 100, 100, 0, false, false, model.VerdictAccepted},
		{"zero max zero failures", 0, 0, 0, false, false, model.VerdictAccepted},
		{"partial beats tle", 50, 100, 2, true, false, model.VerdictPartial},
		{"partial beats runtime", 50, 100, 2, false, true, model.VerdictPartial},
		{"tle beats runtime", 0, 100, 1, true, true, model.VerdictTimeLimit},
		{"runtime beats wrong answer", 0, 100, 1, false, true, model.VerdictRuntimeError},
		{"plain wrong answer", 0, 100, 1, false, false, model.VerdictWrongAnswer},
		{"zero max with timeout", 0, 0, 1, true, false, model.VerdictTimeLimit},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := finalVerdict(tt.total, tt.max, tt.failed, tt.sawTimeout, tt.sawRuntime)
			if got != tt.want {
				t.Errorf("finalVerdict() = %v, want %v", got, tt.want)
			}
		})
	}
}

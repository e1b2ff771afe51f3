// Package model defines the judge domain types shared across the pipeline.
package model

import "time"

// Language identifies a supported submission language.
type Language string

const (
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangJava       Language = "java"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
)

// Valid reports whether the language is one of the supported set.
func (l Language) Valid() bool {
	switch l {
	case LangC, LangCpp, LangJava, LangPython, LangJavaScript:
		return true
	}
	return false
}

// Verdict is the final categorical judging outcome.
type Verdict string

const (
	VerdictAccepted         Verdict = "ACCEPTED"
	VerdictPartial          Verdict = "PARTIAL"
	VerdictWrongAnswer      Verdict = "WRONG_ANSWER"
	VerdictTimeLimit        Verdict = "TLE"
	VerdictRuntimeError     Verdict = "RUNTIME_ERROR"
	VerdictCompilationError Verdict = "COMPILATION_ERROR"
)

// StatusPending marks a submission that is queued or actively being judged.
// Pollers distinguish the two by the presence of a progress percentage in
// the detail field.
const StatusPending = "PENDING"

// Visibility controls when a submission becomes publicly listed.
type Visibility string

const (
	VisibilityAlways   Visibility = "always"
	VisibilityOnAccept Visibility = "on_accept"
	VisibilityNever    Visibility = "never"
)

// TestCase is one input/expected-output pair of a problem.
// Identity is positional: verdicts reference the 1-indexed rank within the
// problem's ordered list.
type TestCase struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	IsHidden  bool   `json:"isHidden"`
	Score     int    `json:"score"`
	GroupName string `json:"groupName"`
}

// Problem carries the judging metadata for one problem. The test case order
// defines both execution sequence and contiguous grouping.
type Problem struct {
	ID            int64
	TimeLimitMs   int64
	MemoryLimitMB int64
	TestCases     []TestCase
}

// Submission is the record a judge job operates on. The judge owns writes to
// every field except Code, Language and the initial status.
type Submission struct {
	ID             string
	ProblemID      int64
	UserID         int64
	Code           string
	Language       Language
	Status         string
	TimeUsedMs     int64
	MemoryUsedKB   int64
	Detail         string
	FailedCase     int
	ExpectedOutput string
	ActualOutput   string
	TotalScore     int
	MaxScore       int
	Visibility     Visibility
	IsPublic       bool
	CreatedAt      time.Time
}

// GroupScoreReport is the partial-credit summary for one maximal run of
// consecutive test cases sharing (groupName, isHidden). Start and End are
// 1-indexed and inclusive.
type GroupScoreReport struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	GroupName   string `json:"groupName"`
	IsHidden    bool   `json:"isHidden"`
	MaxScore    int    `json:"maxScore"`
	EarnedScore int    `json:"earnedScore"`
	TotalCases  int    `json:"totalCases"`
	PassedCases int    `json:"passedCases"`
}

// JudgeVerdict is everything the scoring engine produces for one submission.
type JudgeVerdict struct {
	Status         Verdict
	TimeUsedMs     int64
	MemoryUsedKB   int64
	Detail         string
	FailedCase     int
	ExpectedOutput string
	ActualOutput   string
	TotalScore     int
	MaxScore       int
	GroupScores    []GroupScoreReport
}

// RunStatus is the outcome category of an ad-hoc run.
type RunStatus string

const (
	RunOK               RunStatus = "OK"
	RunTimeLimit        RunStatus = "TLE"
	RunRuntimeError     RunStatus = "RUNTIME_ERROR"
	RunCompilationError RunStatus = "COMPILATION_ERROR"
	RunError            RunStatus = "ERROR"
)

// RunPayload is the inline payload of an ad-hoc run job.
type RunPayload struct {
	Code        string   `json:"code"`
	Language    Language `json:"language"`
	Input       string   `json:"input"`
	TimeLimitMs int64    `json:"timeLimitMs"`
}

// RunOutcome is the result of an ad-hoc run job.
type RunOutcome struct {
	OK     bool      `json:"ok"`
	Status RunStatus `json:"status"`
	Stdout string    `json:"stdout"`
	Stderr string    `json:"stderr"`
	TimeMs int64     `json:"timeMs"`
}

// LiveStatus is the poller-facing status mirror kept in redis while a job
// moves through the pipeline.
type LiveStatus struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	DoneCases  int     `json:"doneCases"`
	TotalCases int     `json:"totalCases"`
	Percent    float64 `json:"percent"`
	Detail     string  `json:"detail,omitempty"`
	UpdatedAt  int64   `json:"updatedAt"`
}

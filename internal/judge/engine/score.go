package engine

import (
	"strings"

	"minoj/internal/judge/model"
)

// NormalizeOutput canonicalizes program output before comparison: CRLF
// becomes LF, trailing whitespace is stripped per line, and the whole string
// is trimmed. Normalizing twice is a no-op.
func NormalizeOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// BuildGroups partitions ordered test cases into maximal contiguous runs
// sharing (groupName, isHidden). The returned ranges are 1-indexed,
// inclusive, non-overlapping, and cover every case exactly once.
func BuildGroups(cases []model.TestCase) []model.GroupScoreReport {
	var groups []model.GroupScoreReport
	for i, tc := range cases {
		n := len(groups)
		if n > 0 && groups[n-1].GroupName == tc.GroupName && groups[n-1].IsHidden == tc.IsHidden {
			groups[n-1].End = i + 1
			groups[n-1].MaxScore += tc.Score
			groups[n-1].TotalCases++
			continue
		}
		groups = append(groups, model.GroupScoreReport{
			Start:      i + 1,
			End:        i + 1,
			GroupName:  tc.GroupName,
			IsHidden:   tc.IsHidden,
			MaxScore:   tc.Score,
			TotalCases: 1,
		})
	}
	return groups
}

// groupIndexFor returns the index in groups covering the 1-indexed case rank.
func groupIndexFor(groups []model.GroupScoreReport, rank int) int {
	for i, g := range groups {
		if rank >= g.Start && rank <= g.End {
			return i
		}
	}
	return -1
}

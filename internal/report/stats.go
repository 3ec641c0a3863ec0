package report

import (
	"math"

	"github.com/prodiplan/essaygrader/internal/store"
)

// Stats summarizes a student's attempts for the profile and history
// screens.
type Stats struct {
	Total     int
	Completed int
	Analyzing int
	// Average and Highest cover completed attempts only.
	Average int
	Highest int
}

func Summarize(attempts []store.Attempt) Stats {
	var (
		st  Stats
		sum int
	)
	st.Total = len(attempts)
	for _, a := range attempts {
		switch a.Status {
		case store.StatusCompleted:
			st.Completed++
			sum += a.FinalScore
			st.Highest = max(st.Highest, a.FinalScore)
		case store.StatusAnalyzing:
			st.Analyzing++
		}
	}
	if st.Completed > 0 {
		st.Average = int(math.Round(float64(sum) / float64(st.Completed)))
	}
	return st
}

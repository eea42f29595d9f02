package events

import "time"

const (
	StreamName   = "CROSSCHECK_EVENTS"
	StreamMaxAge = 30 * 24 * time.Hour

	SubjectOracleStatus = "crosscheck.oracle.status"
)

// StreamSubjects are the wildcards captured by StreamName.
var StreamSubjects = []string{"crosscheck.run.>", "crosscheck.oracle.>"}

func SubjectRunCompleted(runID string) string { return "crosscheck.run." + runID + ".completed" }
func SubjectRunFailed(runID string) string    { return "crosscheck.run." + runID + ".failed" }

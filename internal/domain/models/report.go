package models

// ReportKind identifies one of the two System Activity reports.
type ReportKind string

const (
	ReportUnusedContent  ReportKind = "unused_content"
	ReportDeletedContent ReportKind = "deleted_content"
)

// ReportRef describes which report to resolve. An empty Name selects the
// built-in System Activity query for Kind, filtered by Days.
type ReportRef struct {
	Kind ReportKind
	Name string
	Days int
}

// ReportRows is the decoded result of one report execution. QueryID is the
// query that actually ran, which may differ from the one requested.
type ReportRows struct {
	QueryID string
	Items   []ContentItem
}

// Transition returns the lifecycle edge fed by this report.
func (k ReportKind) Transition() Transition {
	if k == ReportDeletedContent {
		return TransitionHardDelete
	}
	return TransitionSoftDelete
}

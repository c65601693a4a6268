package cpm

// Times holds the derived schedule fields of one activity, in days from
// project start.
type Times struct {
	EarlyStart  int
	EarlyFinish int
	LateStart   int
	LateFinish  int
	TotalFloat  int
	IsCritical  bool
}

// Result holds a complete critical path analysis of a project network.
type Result struct {
	Activities    map[uint64]Times
	Order         []uint64 // topological
	ProjectFinish int
	CriticalPath  []uint64 // zero-float activities in topological order
	NearCritical  []uint64 // 0 < float <= NearCriticalThreshold, topological order
}

// DelayImpact describes what happens to the project when one activity slips.
type DelayImpact struct {
	ActivityID         uint64
	DelayDays          int
	AvailableFloat     int
	AbsorbedByFloat    int
	ProjectDelay       int
	IsCritical         bool
	AffectedActivities []uint64 // direct successors, only when the project slips
	OriginalDuration   int
	NewDuration        int
}

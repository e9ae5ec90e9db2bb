package models

// CaptureStage is one state of the capture pipeline. Stages advance in
// declaration order; Failed may be entered from any of them.
type CaptureStage int

const (
	StageIdle CaptureStage = iota
	StageNavigatingOrLoading
	StageScraping
	StageInliningResources
	StageDone
	StageFailed
)

var stageNames = map[CaptureStage]string{
	StageIdle:                "idle",
	StageNavigatingOrLoading: "navigating-or-loading",
	StageScraping:            "scraping",
	StageInliningResources:   "inlining-resources",
	StageDone:                "done",
	StageFailed:              "failed",
}

func (s CaptureStage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseCaptureStage maps a wire name back to its stage. Unknown names map
// to StageIdle so a garbled progress event can never advance a session.
func ParseCaptureStage(name string) CaptureStage {
	for stage, n := range stageNames {
		if n == name {
			return stage
		}
	}
	return StageIdle
}

// Terminal reports whether no further stage can follow.
func (s CaptureStage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// PageData is the result of a completed capture: the self-contained
// document plus the metadata the store needs.
type PageData struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	Href     string `json:"href"`
	PageDesc string `json:"pageDesc"`
}

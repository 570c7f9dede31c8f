package orchestrator

// Stage は1回のページ生成が通過する工程です。
type Stage int

const (
	StageIdle Stage = iota
	StageContinuing
	StageValidatingStory
	StageGatheringReferences
	StageCompiling
	StageSynthesizing
	StageAwaitingSelection
	StageCommitted
)

var stageNames = map[Stage]string{
	StageIdle:                "idle",
	StageContinuing:          "continuing",
	StageValidatingStory:     "validating_story",
	StageGatheringReferences: "gathering_references",
	StageCompiling:           "compiling",
	StageSynthesizing:        "synthesizing",
	StageAwaitingSelection:   "awaiting_selection",
	StageCommitted:           "committed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

package entities

// Memory type names as they appear in the persisted report.
const (
	FlashMemoryType = "flash"
	RAMMemoryType   = "RAM for global variables"
)

// SizeFigures pairs an absolute byte figure with its percentage of the
// board's declared maximum.
type SizeFigures struct {
	Absolute Value   `json:"absolute"`
	Relative Percent `json:"relative"`
}

// SizeEntry is the per-memory-type section of a sketch report. Previous and
// Delta are present only when a deltas comparison was performed.
type SizeEntry struct {
	Name     string       `json:"name"`
	Maximum  Value        `json:"maximum"`
	Current  SizeFigures  `json:"current"`
	Previous *SizeFigures `json:"previous,omitempty"`
	Delta    *SizeFigures `json:"delta,omitempty"`
}

// WarningsFigure is the scalar analogue of SizeFigures for compiler warning
// counts.
type WarningsFigure struct {
	Absolute Value `json:"absolute"`
}

// WarningsEntry is the warnings section of a sketch report.
type WarningsEntry struct {
	Current  WarningsFigure  `json:"current"`
	Previous *WarningsFigure `json:"previous,omitempty"`
	Delta    *WarningsFigure `json:"delta,omitempty"`
}

// SketchReport is the record of one sketch compilation, immutable once
// handed to the aggregator.
type SketchReport struct {
	Name               string         `json:"name"`
	CompilationSuccess bool           `json:"compilation_success"`
	Sizes              []SizeEntry    `json:"sizes"`
	Warnings           *WarningsEntry `json:"warnings,omitempty"`
}

// Band is a minimum/maximum pair of absolute delta figures.
type Band struct {
	Minimum Value `json:"minimum"`
	Maximum Value `json:"maximum"`
}

// PercentBand carries the relative deltas correlated with the entries of an
// absolute Band. They are recorded alongside the absolute extremes, never
// recomputed.
type PercentBand struct {
	Minimum Percent `json:"minimum"`
	Maximum Percent `json:"maximum"`
}

// SizeSummaryDelta is the batch-level delta band for one memory type.
type SizeSummaryDelta struct {
	Absolute Band        `json:"absolute"`
	Relative PercentBand `json:"relative"`
}

// SizeSummary is the batch-level size section of a board report.
type SizeSummary struct {
	Name    string           `json:"name"`
	Maximum Value            `json:"maximum"`
	Delta   SizeSummaryDelta `json:"delta"`
}

// WarningsSummaryDelta is the batch-level warnings delta band.
type WarningsSummaryDelta struct {
	Absolute Band `json:"absolute"`
}

// WarningsSummary is the batch-level warnings section of a board report. Its
// absence means no sketch in the batch carried a warnings delta.
type WarningsSummary struct {
	Delta WarningsSummaryDelta `json:"delta"`
}

// BoardReport groups the per-sketch reports for one board configuration with
// the optional batch-level summaries.
type BoardReport struct {
	Board    string           `json:"board"`
	Sizes    []SizeSummary    `json:"sizes,omitempty"`
	Warnings *WarningsSummary `json:"warnings,omitempty"`
	Sketches []SketchReport   `json:"sketches"`
}

// SketchesReport is the persisted artifact of a run: one JSON file per board
// configuration. The tool compiles for a single board per run, but the shape
// accommodates multiple boards.
type SketchesReport struct {
	CommitHash string        `json:"commit_hash"`
	CommitURL  string        `json:"commit_url"`
	Boards     []BoardReport `json:"boards"`
}

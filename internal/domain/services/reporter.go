package services

import (
	"fmt"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// NeedsDeltas reports whether a baseline comparison should be made for a
// sketch. It requires the deltas feature to be enabled, the current
// compilation to have succeeded, and at least one current figure (size or
// warning count) to be a real value; comparing nothing against a baseline
// would produce an all-NotApplicable delta.
func NeedsDeltas(enabled bool, result *entities.CompilationResult, sizes []MemoryUsage, warnings *entities.Value) bool {
	if !enabled || !result.Success {
		return false
	}
	for _, size := range sizes {
		if size.Absolute.Known() {
			return true
		}
	}
	return warnings != nil && warnings.Known()
}

// BuildSizeEntries assembles the per-memory-type report entries from the
// current extraction and, when a baseline pass ran, the previous one. The
// two slices are index-aligned by construction (same fixed memory type
// list).
func BuildSizeEntries(current, previous []MemoryUsage, log interfaces.Logger) []entities.SizeEntry {
	entries := make([]entities.SizeEntry, 0, len(current))
	for i, cur := range current {
		var prev *MemoryUsage
		if previous != nil {
			prev = &previous[i]
		}
		entries = append(entries, buildSizeEntry(cur, prev, log))
	}
	return entries
}

func buildSizeEntry(current MemoryUsage, previous *MemoryUsage, log interfaces.Logger) entities.SizeEntry {
	entry := entities.SizeEntry{
		Name:    current.Name,
		Maximum: current.Maximum,
		Current: entities.SizeFigures{
			Absolute: current.Absolute,
			Relative: current.Relative,
		},
	}

	if previous == nil {
		return entry
	}

	absoluteDelta := current.Absolute.Sub(previous.Absolute)
	// The relative delta is computed from the absolute delta rather than by
	// subtracting the two already-rounded percentages, which would compound
	// rounding error.
	relativeDelta := entities.RelativeValue(absoluteDelta, entry.Maximum)

	message := fmt.Sprintf("Change in %s: %s", current.Name, absoluteDelta)
	if relativeDelta.Known() {
		message += fmt.Sprintf(" (%s%%)", relativeDelta)
	}
	log.Info(message)

	entry.Previous = &entities.SizeFigures{
		Absolute: previous.Absolute,
		Relative: previous.Relative,
	}
	entry.Delta = &entities.SizeFigures{
		Absolute: absoluteDelta,
		Relative: relativeDelta,
	}
	return entry
}

// BuildWarningsEntry assembles the warnings report section. previous is nil
// when no baseline pass ran.
func BuildWarningsEntry(current entities.Value, previous *entities.Value, log interfaces.Logger) *entities.WarningsEntry {
	entry := &entities.WarningsEntry{
		Current: entities.WarningsFigure{Absolute: current},
	}

	if previous == nil {
		return entry
	}

	delta := current.Sub(*previous)
	log.Info(fmt.Sprintf("Change in compiler warning count: %s", delta))

	entry.Previous = &entities.WarningsFigure{Absolute: *previous}
	entry.Delta = &entities.WarningsFigure{Absolute: delta}
	return entry
}

// SummarizeSizes computes per-memory-type minimum/maximum delta bands across
// a batch of sketch reports. Sketches without delta data are skipped. A
// NotApplicable delta only ever occupies an extreme as a placeholder while
// no numeric delta has been seen for that memory type; once a numeric value
// is recorded, NotApplicable never displaces it.
func SummarizeSizes(sketches []entities.SketchReport) []entities.SizeSummary {
	var summaries []entities.SizeSummary
	for _, sketch := range sketches {
		for _, entry := range sketch.Sizes {
			if entry.Delta == nil {
				continue
			}
			index := summaryIndex(summaries, entry.Name)
			if index < 0 {
				summaries = append(summaries, entities.SizeSummary{
					Name:    entry.Name,
					Maximum: entry.Maximum,
					Delta: entities.SizeSummaryDelta{
						Absolute: entities.Band{
							Minimum: entry.Delta.Absolute,
							Maximum: entry.Delta.Absolute,
						},
						Relative: entities.PercentBand{
							Minimum: entry.Delta.Relative,
							Maximum: entry.Delta.Relative,
						},
					},
				})
				continue
			}

			summary := &summaries[index]
			// The first report carrying a real board maximum fills it in;
			// later values never override it.
			if !summary.Maximum.Known() {
				summary.Maximum = entry.Maximum
			}

			switch {
			case !summary.Delta.Absolute.Minimum.Known():
				// Placeholder extremes: replace both sides wholesale.
				summary.Delta.Absolute.Minimum = entry.Delta.Absolute
				summary.Delta.Relative.Minimum = entry.Delta.Relative
				summary.Delta.Absolute.Maximum = entry.Delta.Absolute
				summary.Delta.Relative.Maximum = entry.Delta.Relative
			case entry.Delta.Absolute.Known():
				if entry.Delta.Absolute.Less(summary.Delta.Absolute.Minimum) {
					summary.Delta.Absolute.Minimum = entry.Delta.Absolute
					summary.Delta.Relative.Minimum = entry.Delta.Relative
				}
				if entry.Delta.Absolute.Greater(summary.Delta.Absolute.Maximum) {
					summary.Delta.Absolute.Maximum = entry.Delta.Absolute
					summary.Delta.Relative.Maximum = entry.Delta.Relative
				}
			}
		}
	}
	return summaries
}

func summaryIndex(summaries []entities.SizeSummary, name string) int {
	for i, summary := range summaries {
		if summary.Name == name {
			return i
		}
	}
	return -1
}

// SummarizeWarnings computes the batch-level warnings delta band. It returns
// nil when no sketch in the batch carries a warnings delta, which is
// distinct from a batch of defined-but-zero deltas.
func SummarizeWarnings(sketches []entities.SketchReport) *entities.WarningsSummary {
	var minimum, maximum *entities.Value
	for _, sketch := range sketches {
		if sketch.Warnings == nil || sketch.Warnings.Delta == nil {
			continue
		}
		delta := sketch.Warnings.Delta.Absolute

		switch {
		case minimum == nil || !minimum.Known():
			v := delta
			minimum = &v
		case delta.Known() && delta.Less(*minimum):
			v := delta
			minimum = &v
		}

		switch {
		case maximum == nil || !maximum.Known():
			v := delta
			maximum = &v
		case delta.Known() && delta.Greater(*maximum):
			v := delta
			maximum = &v
		}
	}

	if minimum == nil {
		return nil
	}
	return &entities.WarningsSummary{
		Delta: entities.WarningsSummaryDelta{
			Absolute: entities.Band{Minimum: *minimum, Maximum: *maximum},
		},
	}
}

package services

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// MemoryUsage is the raw per-memory-type extraction from one compilation's
// output, before report assembly.
type MemoryUsage struct {
	Name     string
	Absolute entities.Value
	Maximum  entities.Value
	Relative entities.Percent
}

// memoryTypePatterns pairs each memory type with the expressions locating
// its figures in the toolchain's human-readable output. Absolute and maximum
// are extracted independently: a board without a declared upload size limit
// still reports the absolute figure.
type memoryTypePatterns struct {
	name     string
	absolute *regexp.Regexp
	maximum  *regexp.Regexp
}

var memoryTypes = []memoryTypePatterns{
	{
		name:     entities.FlashMemoryType,
		absolute: regexp.MustCompile(`Sketch uses ([0-9]+) bytes .*of program storage space\.`),
		maximum:  regexp.MustCompile(`Sketch uses [0-9]+ bytes .*of program storage space\. Maximum is ([0-9]+) bytes`),
	},
	{
		name:     entities.RAMMemoryType,
		absolute: regexp.MustCompile(`Global variables use ([0-9]+) bytes .*of dynamic memory`),
		maximum:  regexp.MustCompile(`Global variables use [0-9]+ bytes .*of dynamic memory.*\. Maximum is ([0-9]+) bytes`),
	},
}

// warningPattern counts compiler warnings by their source-location prefix.
var warningPattern = regexp.MustCompile(`:[0-9]+:[0-9]+: warning:`)

// ExtractSizes parses the compilation output for memory usage figures. A
// failed compilation yields NotApplicable for every figure without parsing.
// Each missing figure logs a verbose-mode diagnostic; it is a degradation,
// not an error.
func ExtractSizes(result *entities.CompilationResult, log interfaces.Logger) []MemoryUsage {
	sizes := make([]MemoryUsage, 0, len(memoryTypes))
	for _, memoryType := range memoryTypes {
		usage := MemoryUsage{
			Name:     memoryType.name,
			Absolute: entities.NotApplicable(),
			Maximum:  entities.NotApplicable(),
			Relative: entities.NotApplicablePercent(),
		}
		if result.Success {
			if absolute, ok := extractFigure(result.Output, memoryType.absolute); ok {
				usage.Absolute = absolute
				if maximum, ok := extractFigure(result.Output, memoryType.maximum); ok {
					usage.Maximum = maximum
					usage.Relative = entities.RelativeValue(usage.Absolute, usage.Maximum)
				} else {
					logMissingFigure(log, "maximum", memoryType.name)
				}
			} else {
				logMissingFigure(log, "absolute", memoryType.name)
			}
		}
		sizes = append(sizes, usage)
	}
	return sizes
}

func extractFigure(output string, pattern *regexp.Regexp) (entities.Value, bool) {
	match := pattern.FindStringSubmatch(output)
	if match == nil {
		return entities.NotApplicable(), false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return entities.NotApplicable(), false
	}
	return entities.ValueOf(n), true
}

func logMissingFigure(log interfaces.Logger, figure, memoryType string) {
	// The platform may not define the size recipe, or the board may not
	// declare an upload size limit; either way the figure is simply absent.
	log.Debug(fmt.Sprintf(
		"::warning::Unable to determine the: %q value for memory type: %q. "+
			"The board's platform may not have been configured to provide this information.",
		figure, memoryType))
}

// ExtractWarningCount counts compiler warnings in the compilation output.
// A failed compilation's partial count is not meaningful, so it reports
// NotApplicable rather than zero.
func ExtractWarningCount(result *entities.CompilationResult) entities.Value {
	if !result.Success {
		return entities.NotApplicable()
	}
	return entities.ValueOf(len(warningPattern.FindAllString(result.Output, -1)))
}

package services

import (
	"testing"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

const fullOutput = `Sketch uses 994 bytes (3%) of program storage space. Maximum is 28672 bytes.
Global variables use 9 bytes (0%) of dynamic memory, leaving 2551 bytes for local variables. Maximum is 2560 bytes.
`

const noMaximumOutput = `Sketch uses 994 bytes of program storage space.
Global variables use 9 bytes of dynamic memory.
`

func successResult(output string) *entities.CompilationResult {
	return &entities.CompilationResult{Sketch: "Blink", Success: true, Output: output}
}

func TestExtractSizes(t *testing.T) {
	sizes := ExtractSizes(successResult(fullOutput), interfaces.NoOpLogger{})
	if len(sizes) != 2 {
		t.Fatalf("expected 2 memory types, got %d", len(sizes))
	}

	flash := sizes[0]
	if flash.Name != entities.FlashMemoryType {
		t.Errorf("sizes[0].Name = %s, want %s", flash.Name, entities.FlashMemoryType)
	}
	if flash.Absolute != entities.ValueOf(994) {
		t.Errorf("flash absolute = %v, want 994", flash.Absolute)
	}
	if flash.Maximum != entities.ValueOf(28672) {
		t.Errorf("flash maximum = %v, want 28672", flash.Maximum)
	}
	if flash.Relative != entities.PercentOf(3.47) {
		t.Errorf("flash relative = %v, want 3.47", flash.Relative)
	}

	ram := sizes[1]
	if ram.Name != entities.RAMMemoryType {
		t.Errorf("sizes[1].Name = %s, want %s", ram.Name, entities.RAMMemoryType)
	}
	if ram.Absolute != entities.ValueOf(9) {
		t.Errorf("RAM absolute = %v, want 9", ram.Absolute)
	}
	if ram.Maximum != entities.ValueOf(2560) {
		t.Errorf("RAM maximum = %v, want 2560", ram.Maximum)
	}
}

func TestExtractSizesWithoutMaximum(t *testing.T) {
	sizes := ExtractSizes(successResult(noMaximumOutput), interfaces.NoOpLogger{})

	flash := sizes[0]
	if flash.Absolute != entities.ValueOf(994) {
		t.Errorf("flash absolute = %v, want 994", flash.Absolute)
	}
	if flash.Maximum.Known() {
		t.Errorf("flash maximum = %v, want N/A", flash.Maximum)
	}
	if flash.Relative.Known() {
		t.Errorf("flash relative = %v, want N/A", flash.Relative)
	}
}

func TestExtractSizesFromFailedCompilation(t *testing.T) {
	result := &entities.CompilationResult{Sketch: "Broken", Success: false, Output: fullOutput}
	sizes := ExtractSizes(result, interfaces.NoOpLogger{})
	for _, size := range sizes {
		if size.Absolute.Known() || size.Maximum.Known() || size.Relative.Known() {
			t.Errorf("failed compilation must not yield figures, got %+v", size)
		}
	}
}

func TestExtractSizesFromEmptyOutput(t *testing.T) {
	sizes := ExtractSizes(successResult("no usage information here"), interfaces.NoOpLogger{})
	for _, size := range sizes {
		if size.Absolute.Known() {
			t.Errorf("absolute for %s should be N/A, got %v", size.Name, size.Absolute)
		}
	}
}

func TestExtractWarningCount(t *testing.T) {
	tests := []struct {
		name     string
		result   *entities.CompilationResult
		expected entities.Value
	}{
		{
			name:     "no warnings",
			result:   successResult("all clean"),
			expected: entities.ValueOf(0),
		},
		{
			name: "counts location-prefixed warnings",
			result: successResult(`/tmp/Blink/Blink.ino:5:10: warning: unused variable 'x'
/tmp/Blink/Blink.ino:9:3: warning: implicit conversion
something else entirely
`),
			expected: entities.ValueOf(2),
		},
		{
			name:     "failed compilation",
			result:   &entities.CompilationResult{Sketch: "Broken", Success: false, Output: ":1:1: warning: x"},
			expected: entities.NotApplicable(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractWarningCount(tt.result)
			if got != tt.expected {
				t.Errorf("ExtractWarningCount() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import (
	"fmt"
	"io"
	"os"
)

// Logger is the logging contract used across the pipeline. The tool runs
// inside CI workflows, so warnings and errors are emitted as workflow
// commands the runner renders as annotations.
type Logger interface {
	// Debug logs output only when verbose mode is enabled.
	Debug(msg string)

	// Info logs unconditionally.
	Info(msg string)

	// Warning emits a warning annotation.
	Warning(msg string)

	// Error emits an error annotation.
	Error(msg string)

	// Group opens a collapsible log group; EndGroup closes it.
	Group(title string)
	EndGroup()
}

// WorkflowLogger writes GitHub-workflow-command formatted log output.
type WorkflowLogger struct {
	Verbose bool
	Out     io.Writer
}

// NewWorkflowLogger creates a logger writing to stdout, where the CI runner
// picks up workflow commands.
func NewWorkflowLogger(verbose bool) *WorkflowLogger {
	return &WorkflowLogger{Verbose: verbose, Out: os.Stdout}
}

// Debug logs only in verbose mode.
func (l *WorkflowLogger) Debug(msg string) {
	if l.Verbose {
		fmt.Fprintln(l.Out, msg)
	}
}

// Info logs unconditionally.
func (l *WorkflowLogger) Info(msg string) {
	fmt.Fprintln(l.Out, msg)
}

// Warning emits a ::warning:: annotation.
func (l *WorkflowLogger) Warning(msg string) {
	fmt.Fprintln(l.Out, "::warning::"+msg)
}

// Error emits an ::error:: annotation.
func (l *WorkflowLogger) Error(msg string) {
	fmt.Fprintln(l.Out, "::error::"+msg)
}

// Group opens a collapsible log group.
func (l *WorkflowLogger) Group(title string) {
	fmt.Fprintln(l.Out, "::group::"+title)
}

// EndGroup closes the current log group.
func (l *WorkflowLogger) EndGroup() {
	fmt.Fprintln(l.Out, "::endgroup::")
}

// NoOpLogger discards everything (useful for tests).
type NoOpLogger struct{}

// Debug does nothing.
func (NoOpLogger) Debug(_ string) {}

// Info does nothing.
func (NoOpLogger) Info(_ string) {}

// Warning does nothing.
func (NoOpLogger) Warning(_ string) {}

// Error does nothing.
func (NoOpLogger) Error(_ string) {}

// Group does nothing.
func (NoOpLogger) Group(_ string) {}

// EndGroup does nothing.
func (NoOpLogger) EndGroup() {}

package entities

import "time"

// CompilationResult is the outcome of one toolchain invocation for one
// sketch. Success is determined by the exit status alone; the captured output
// is kept verbatim for later size and warning extraction.
type CompilationResult struct {
	Sketch  string // absolute path of the sketch directory
	Success bool
	Output  string // combined stdout and stderr
	Elapsed time.Duration
}

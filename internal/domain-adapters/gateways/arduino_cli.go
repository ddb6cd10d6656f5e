package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// OutputMode controls when a command's captured output is printed.
type OutputMode int

const (
	// OutputNone never prints; the caller handles the output itself.
	OutputNone OutputMode = iota
	// OutputOnFailure prints only when the command exits non-zero.
	OutputOnFailure
	// OutputAlways prints regardless of exit status.
	OutputAlways
)

// CommandResult is the outcome of one external command invocation.
type CommandResult struct {
	Args     []string
	ExitCode int
	Output   string // combined stdout and stderr
	Elapsed  time.Duration
}

// Success reports whether the command exited zero.
func (r *CommandResult) Success() bool {
	return r.ExitCode == 0
}

// InstalledPlatform is one entry of the package manager's installed-platform
// listing.
type InstalledPlatform struct {
	ID        string `json:"ID"`
	Installed string `json:"Installed"`
}

// ArduinoCLI invokes the external compiler toolchain as a subprocess.
type ArduinoCLI struct {
	// Path of the toolchain executable.
	Path string
	// Extra environment entries (directory overrides) applied to every
	// invocation.
	Env map[string]string
	// Verbose adds the toolchain's own verbosity flags to every command.
	Verbose bool
	// BuildCacheGlob matches the build cache directories cleared before a
	// warning-counting compilation.
	BuildCacheGlob string

	Log interfaces.Logger
}

// NewArduinoCLI creates a toolchain client for the executable installed
// under installDir, with its user and data directories pinned to the
// configured paths.
func NewArduinoCLI(installDir string, paths entities.InstallationPaths, verbose bool, log interfaces.Logger) *ArduinoCLI {
	return &ArduinoCLI{
		Path: filepath.Join(installDir, "arduino-cli"),
		Env: map[string]string{
			"ARDUINO_DIRECTORIES_USER": paths.UserDirectory,
			"ARDUINO_DIRECTORIES_DATA": paths.DataDirectory,
		},
		Verbose:        verbose,
		BuildCacheGlob: "/tmp/arduino*",
		Log:            log,
	}
}

// Run executes a toolchain command and returns its result. An error is
// returned only when the process could not be started; a non-zero exit is
// reported through the result so callers decide whether it is fatal.
func (c *ArduinoCLI) Run(ctx context.Context, args []string, mode OutputMode) (*CommandResult, error) {
	fullArgs := append([]string(nil), args...)
	if c.Verbose {
		fullArgs = append(fullArgs, "--log-level", "warn", "--verbose")
	}

	//nolint:gosec // G204: the toolchain path and arguments are controlled by configuration
	cmd := exec.CommandContext(ctx, c.Path, fullArgs...)
	env := os.Environ()
	for key, value := range c.Env {
		env = append(env, key+"="+value)
	}
	cmd.Env = env

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	start := time.Now()
	err := cmd.Run()
	result := &CommandResult{
		Args:    append([]string{c.Path}, fullArgs...),
		Output:  combined.String(),
		Elapsed: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", c.Path, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	if mode == OutputAlways || (mode == OutputOnFailure && !result.Success()) {
		c.Log.Group("Running command: " + strings.Join(result.Args, " "))
		c.Log.Info(result.Output)
		c.Log.EndGroup()
		if !result.Success() {
			c.Log.Error("Command failed")
		}
	}

	return result, nil
}

// run executes a command that must succeed.
func (c *ArduinoCLI) run(ctx context.Context, args []string, mode OutputMode) (*CommandResult, error) {
	result, err := c.Run(ctx, args, mode)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, fmt.Errorf("%s %s failed with exit status %d",
			filepath.Base(c.Path), strings.Join(args, " "), result.ExitCode)
	}
	return result, nil
}

// outputMode returns the output setting for install-phase commands: always
// in verbose mode, on failure otherwise.
func (c *ArduinoCLI) outputMode() OutputMode {
	if c.Verbose {
		return OutputAlways
	}
	return OutputOnFailure
}

// UpdateIndex downloads the platform indexes, including the additional board
// manager URL when one is given.
func (c *ArduinoCLI) UpdateIndex(ctx context.Context, additionalURL string) error {
	args := []string{"core", "update-index"}
	if additionalURL != "" {
		args = append(args, "--additional-urls", additionalURL)
	}
	_, err := c.run(ctx, args, c.outputMode())
	return err
}

// InstallPlatform installs one platform through the board manager.
func (c *ArduinoCLI) InstallPlatform(ctx context.Context, name, additionalURL string) error {
	args := []string{"core", "install"}
	if additionalURL != "" {
		args = append(args, "--additional-urls", additionalURL)
	}
	args = append(args, name)
	_, err := c.run(ctx, args, c.outputMode())
	return err
}

// InstallLibrary installs one library through the library manager. Libraries
// are installed one at a time so earlier entries never lose a version
// conflict against a later entry's dependency resolution.
func (c *ArduinoCLI) InstallLibrary(ctx context.Context, name string) error {
	_, err := c.run(ctx, []string{"lib", "install", name}, c.outputMode())
	return err
}

// InstalledPlatforms returns the currently installed platforms. The listing
// is only accurate after a fresh index update, so one is always issued
// immediately before the query.
func (c *ArduinoCLI) InstalledPlatforms(ctx context.Context) ([]InstalledPlatform, error) {
	if _, err := c.run(ctx, []string{"core", "update-index"}, OutputOnFailure); err != nil {
		return nil, err
	}
	result, err := c.run(ctx, []string{"core", "list", "--format", "json"}, OutputOnFailure)
	if err != nil {
		return nil, err
	}
	var platforms []InstalledPlatform
	if err := json.Unmarshal([]byte(result.Output), &platforms); err != nil {
		return nil, fmt.Errorf("failed to parse installed platform list: %w", err)
	}
	return platforms, nil
}

// Compile compiles one sketch. A non-zero exit is not an error: the result
// reports it and the batch continues. The build cache is cleared first when
// requested, because a warm cache suppresses re-emission of warnings for
// unchanged translation units and would skew the warning count.
func (c *ArduinoCLI) Compile(ctx context.Context, fqbn, sketchPath string, extraFlags []string, cleanBuildCache bool) (*entities.CompilationResult, error) {
	if cleanBuildCache {
		if err := c.clearBuildCache(); err != nil {
			return nil, err
		}
	}

	args := []string{"compile", "--warnings", "all", "--fqbn", fqbn}
	args = append(args, extraFlags...)
	args = append(args, sketchPath)

	result, err := c.Run(ctx, args, OutputNone)
	if err != nil {
		return nil, err
	}

	return &entities.CompilationResult{
		Sketch:  sketchPath,
		Success: result.Success(),
		Output:  result.Output,
		Elapsed: result.Elapsed,
	}, nil
}

func (c *ArduinoCLI) clearBuildCache() error {
	matches, err := filepath.Glob(c.BuildCacheGlob)
	if err != nil {
		return fmt.Errorf("invalid build cache pattern %q: %w", c.BuildCacheGlob, err)
	}
	for _, match := range matches {
		if err := os.RemoveAll(match); err != nil {
			return fmt.Errorf("failed to clear build cache %s: %w", match, err)
		}
	}
	return nil
}

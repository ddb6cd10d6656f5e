// Package orchestrators coordinates the full compile-and-report workflow
// across the toolchain, dependency, and repository gateways.
package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/sketchci/internal/domain-adapters/gateways"
	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
	"github.com/ochairo/sketchci/internal/domain/services"
	yamladapter "github.com/ochairo/sketchci/internal/external-adapters/yaml"
)

// ErrCompilationFailed reports that at least one sketch failed to compile.
// Every sketch is still attempted and the report still written before this
// is returned.
var ErrCompilationFailed = errors.New("one or more compilations failed")

// CompileOrchestrator runs the complete workflow: install the toolchain and
// dependencies, compile every sketch for the target board, compute deltas
// against the baseline revision, and write the sketches report.
type CompileOrchestrator struct {
	cfg       *entities.Config
	cli       *gateways.ArduinoCLI
	installer *gateways.Installer
	finder    *gateways.SketchFinder
	git       *gateways.Git
	github    *gateways.GitHubClient
	log       interfaces.Logger

	// Baseline for deltas, resolved once before any compilation.
	deltasBaseRef string
}

// NewCompileOrchestrator creates an orchestrator over the given gateways.
func NewCompileOrchestrator(
	cfg *entities.Config,
	cli *gateways.ArduinoCLI,
	installer *gateways.Installer,
	finder *gateways.SketchFinder,
	git *gateways.Git,
	github *gateways.GitHubClient,
	log interfaces.Logger,
) *CompileOrchestrator {
	return &CompileOrchestrator{
		cfg:       cfg,
		cli:       cli,
		installer: installer,
		finder:    finder,
		git:       git,
		github:    github,
		log:       log,
	}
}

// Run executes the workflow. A compilation failure does not stop the run;
// the remaining sketches are compiled, the report is written, and
// ErrCompilationFailed is returned at the end.
func (o *CompileOrchestrator) Run(ctx context.Context) error {
	if o.cfg.EnableDeltasReport {
		if err := o.resolveDeltasBase(ctx); err != nil {
			return err
		}
	}

	if err := o.installer.InstallCLI(ctx); err != nil {
		return err
	}
	defer o.installer.Cleanup()

	if err := o.installDependencies(ctx); err != nil {
		return err
	}

	sketchPaths, err := o.resolveSketchPaths()
	if err != nil {
		return err
	}

	report, allSucceeded, err := o.compileAll(ctx, sketchPaths)
	if err != nil {
		return err
	}

	if err := o.writeReport(report); err != nil {
		return err
	}

	if !allSucceeded {
		return ErrCompilationFailed
	}
	return nil
}

// resolveDeltasBase determines the revision previous versions are compiled
// from. Pull request runs compare against the base branch; push runs compare
// against the parent of the checked out commit.
func (o *CompileOrchestrator) resolveDeltasBase(ctx context.Context) error {
	if o.cfg.IsPullRequest() {
		event, err := gateways.ReadPullRequestEvent(o.cfg.EventPath)
		if err != nil {
			return err
		}
		baseRef, err := o.github.PullRequestBaseRef(ctx, o.cfg.Repository, event.Number)
		if err != nil {
			return err
		}
		if err := o.git.FetchRef(ctx, o.cfg.Workspace, baseRef); err != nil {
			return err
		}
		o.deltasBaseRef = "FETCH_HEAD"
		return nil
	}

	parent, err := o.git.ParentSHA(ctx, o.cfg.Workspace)
	if err != nil {
		return fmt.Errorf("unable to determine the previous commit: %w", err)
	}
	o.deltasBaseRef = parent
	return nil
}

func (o *CompileOrchestrator) installDependencies(ctx context.Context) error {
	platforms, err := o.platformDependencies()
	if err != nil {
		return err
	}
	if err := o.installer.InstallPlatforms(ctx, platforms); err != nil {
		return err
	}

	libraries, err := o.libraryDependencies()
	if err != nil {
		return err
	}
	return o.installer.InstallLibraries(ctx, libraries)
}

// platformDependencies parses the platforms input. When none is given the
// platform is derived from the board identifier so a bare fqbn input still
// gets its toolchain installed.
func (o *CompileOrchestrator) platformDependencies() ([]*entities.DependencyDeclaration, error) {
	if strings.TrimSpace(o.cfg.PlatformsInput) != "" {
		dependencies, err := yamladapter.ParseDependencyList(o.cfg.PlatformsInput)
		if err != nil {
			return nil, fmt.Errorf("invalid platforms input: %w", err)
		}
		return dependencies, nil
	}

	components := strings.Split(o.cfg.FQBN, ":")
	if len(components) < 2 {
		return nil, fmt.Errorf("invalid fqbn: %s", o.cfg.FQBN)
	}
	return []*entities.DependencyDeclaration{{
		Name:      components[0] + ":" + components[1],
		SourceURL: o.cfg.AdditionalURL,
	}}, nil
}

// libraryDependencies parses the libraries input. The modern form is a YAML
// list of dependency declarations. The legacy space-separated form names
// library manager installs and additionally installs the repository under
// test itself as a library.
func (o *CompileOrchestrator) libraryDependencies() ([]*entities.DependencyDeclaration, error) {
	input := yamladapter.ParseListInput(o.cfg.LibrariesInput)
	if input.WasYAMLList {
		dependencies, err := yamladapter.ParseDependencyList(o.cfg.LibrariesInput)
		if err != nil {
			return nil, fmt.Errorf("invalid libraries input: %w", err)
		}
		return dependencies, nil
	}

	var dependencies []*entities.DependencyDeclaration
	for _, name := range input.Values {
		dependencies = append(dependencies, &entities.DependencyDeclaration{Name: name})
	}
	dependencies = append(dependencies, &entities.DependencyDeclaration{SourcePath: "."})
	return dependencies, nil
}

func (o *CompileOrchestrator) resolveSketchPaths() ([]string, error) {
	inputs := yamladapter.SplitList(o.cfg.SketchPathsInput)
	roots := make([]string, 0, len(inputs))
	for _, input := range inputs {
		roots = append(roots, o.cfg.AbsolutePath(input))
	}
	return o.finder.FindSketches(roots)
}

func (o *CompileOrchestrator) compileAll(ctx context.Context, sketchPaths []string) (*entities.SketchesReport, bool, error) {
	allSucceeded := true
	sketches := make([]entities.SketchReport, 0, len(sketchPaths))
	for _, sketchPath := range sketchPaths {
		sketch, err := o.compileSketch(ctx, sketchPath)
		if err != nil {
			return nil, false, err
		}
		if !sketch.CompilationSuccess {
			allSucceeded = false
		}
		sketches = append(sketches, *sketch)
	}

	commitHash, err := o.headCommitHash(ctx)
	if err != nil {
		return nil, false, err
	}

	board := entities.BoardReport{
		Board:    o.cfg.FQBN,
		Sizes:    services.SummarizeSizes(sketches),
		Warnings: services.SummarizeWarnings(sketches),
		Sketches: sketches,
	}

	return &entities.SketchesReport{
		CommitHash: commitHash,
		CommitURL:  o.cfg.CommitURL(commitHash),
		Boards:     []entities.BoardReport{board},
	}, allSucceeded, nil
}

// headCommitHash identifies the commit being compiled. Pull request events
// are checked out as a synthetic merge commit, so the head commit is taken
// from the event payload instead of the working tree.
func (o *CompileOrchestrator) headCommitHash(ctx context.Context) (string, error) {
	if o.cfg.IsPullRequest() {
		event, err := gateways.ReadPullRequestEvent(o.cfg.EventPath)
		if err != nil {
			return "", err
		}
		return event.HeadSHA, nil
	}

	sha, err := o.git.HeadSHA(ctx, o.cfg.Workspace)
	if err != nil {
		return "", fmt.Errorf("unable to determine the head commit: %w", err)
	}
	return sha, nil
}

func (o *CompileOrchestrator) compileSketch(ctx context.Context, sketchPath string) (*entities.SketchReport, error) {
	relativePath := o.cfg.PathRelativeToWorkspace(sketchPath)

	// Warnings counts are only meaningful for a full build, so the build
	// cache is cleared when the warnings report is enabled.
	result, err := o.cli.Compile(ctx, o.cfg.FQBN, sketchPath, o.cfg.ExtraCompileFlags, o.cfg.EnableWarningsReport)
	if err != nil {
		return nil, err
	}

	o.log.Group(fmt.Sprintf("Compiling sketch: %s", relativePath))
	o.log.Info(strings.TrimRight(result.Output, "\n"))
	o.log.EndGroup()
	if result.Success {
		o.log.Info(fmt.Sprintf("Compilation time: %s", result.Elapsed.Round(time.Millisecond)))
	} else {
		o.log.Error("Compilation failed")
	}

	sizes := services.ExtractSizes(result, o.log)
	var warnings *entities.Value
	if o.cfg.EnableWarningsReport {
		count := services.ExtractWarningCount(result)
		warnings = &count
	}

	var previousSizes []services.MemoryUsage
	var previousWarnings *entities.Value
	if services.NeedsDeltas(o.cfg.EnableDeltasReport, result, sizes, warnings) {
		var err error
		previousSizes, previousWarnings, err = o.compilePrevious(ctx, sketchPath)
		if err != nil {
			return nil, err
		}
	}

	report := &entities.SketchReport{
		Name:               relativePath,
		CompilationSuccess: result.Success,
		Sizes:              services.BuildSizeEntries(sizes, previousSizes, o.log),
	}
	if warnings != nil {
		report.Warnings = services.BuildWarningsEntry(*warnings, previousWarnings, o.log)
	}
	return report, nil
}

// compilePrevious checks out the baseline revision, compiles the sketch
// there, and restores the working tree before returning.
func (o *CompileOrchestrator) compilePrevious(ctx context.Context, sketchPath string) (sizes []services.MemoryUsage, warnings *entities.Value, err error) {
	head, err := o.git.HeadSHA(ctx, o.cfg.Workspace)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to record the current revision: %w", err)
	}

	if err := o.git.Checkout(ctx, o.cfg.Workspace, o.deltasBaseRef); err != nil {
		return nil, nil, err
	}
	defer func() {
		// The working tree must come back no matter how the baseline
		// compilation went.
		if restoreErr := o.git.Checkout(ctx, o.cfg.Workspace, head); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	o.log.Info("Compiling previous version of sketch to determine memory usage change")
	result, compileErr := o.cli.Compile(ctx, o.cfg.FQBN, sketchPath, o.cfg.ExtraCompileFlags, o.cfg.EnableWarningsReport)
	if compileErr != nil {
		return nil, nil, compileErr
	}

	sizes = services.ExtractSizes(result, o.log)
	if o.cfg.EnableWarningsReport {
		count := services.ExtractWarningCount(result)
		warnings = &count
	}
	return sizes, warnings, nil
}

// writeReport serializes the sketches report into the configured directory,
// named after the board with colons replaced so the name is filesystem safe.
func (o *CompileOrchestrator) writeReport(report *entities.SketchesReport) error {
	reportDir := o.cfg.AbsolutePath(o.cfg.SketchesReportPath)
	if err := os.MkdirAll(reportDir, 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := strings.ReplaceAll(o.cfg.FQBN, ":", "-") + ".json"
	reportPath := filepath.Join(reportDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(reportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	o.log.Info(fmt.Sprintf("Sketches report written to %s", reportPath))
	return nil
}

// Package main provides the sketchci CLI for compiling sketches in CI and
// reporting memory usage changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ochairo/sketchci/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/sketchci/internal/domain-orchestrators"
	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
	"github.com/ochairo/sketchci/internal/external-adapters/gpg"
	yamladapter "github.com/ochairo/sketchci/internal/external-adapters/yaml"
)

// envOrDefault reads a workflow input from the environment, falling back to
// def when unset. Workflow inputs arrive as INPUT_<NAME> variables.
func envOrDefault(name, def string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	return def
}

func runCompile(ctx context.Context, args []string) {
	fs := pflag.NewFlagSet("compile", pflag.ExitOnError)
	var (
		cliVersion    = fs.String("cli-version", envOrDefault("INPUT_CLI-VERSION", "latest"), "arduino-cli version to install")
		fqbnInput     = fs.String("fqbn", envOrDefault("INPUT_FQBN", "arduino:avr:uno"), "Fully qualified board name, optionally with a board manager URL")
		platforms     = fs.String("platforms", envOrDefault("INPUT_PLATFORMS", ""), "YAML list of platform dependencies")
		libraries     = fs.String("libraries", envOrDefault("INPUT_LIBRARIES", ""), "YAML list of library dependencies")
		sketchPaths   = fs.String("sketch-paths", envOrDefault("INPUT_SKETCH-PATHS", "examples"), "Paths to search for sketches")
		verboseInput  = fs.String("verbose", envOrDefault("INPUT_VERBOSE", "false"), "Enable verbose output (true/false)")
		githubToken   = fs.String("github-token", envOrDefault("INPUT_GITHUB-TOKEN", ""), "GitHub API token for baseline lookups")
		deltasInput   = fs.String("enable-deltas-report", envOrDefault("INPUT_ENABLE-DELTAS-REPORT", "false"), "Compare against the baseline revision (true/false)")
		warningsInput = fs.String("enable-warnings-report", envOrDefault("INPUT_ENABLE-WARNINGS-REPORT", "false"), "Count compiler warnings (true/false)")
		reportPath    = fs.String("sketches-report-path", envOrDefault("INPUT_SKETCHES-REPORT-PATH", "sketches-reports"), "Directory to write the sketches report into")
		gpgKeysPath   = fs.String("gpg-keys-path", envOrDefault("INPUT_GPG-KEYS-PATH", ""), "Local armored GPG keyring for download signature checks")
		gpgKeysURL    = fs.String("gpg-keys-url", envOrDefault("INPUT_GPG-KEYS-URL", ""), "URL of a KEYS file for download signature checks")
	)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := interfaces.NewWorkflowLogger(false)

	handleDeprecatedInputs(log, deltasInput, reportPath)

	verbose, err := yamladapter.ParseBooleanInput(*verboseInput)
	if err != nil {
		fail(log, "Invalid value for verbose input")
	}
	log = interfaces.NewWorkflowLogger(verbose)

	enableDeltas, err := yamladapter.ParseBooleanInput(*deltasInput)
	if err != nil {
		fail(log, "Invalid value for enable-deltas-report input")
	}
	enableWarnings, err := yamladapter.ParseBooleanInput(*warningsInput)
	if err != nil {
		fail(log, "Invalid value for enable-warnings-report input")
	}

	fqbn, additionalURL, err := yamladapter.ParseFQBNArg(*fqbnInput)
	if err != nil {
		fail(log, err.Error())
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fail(log, fmt.Sprintf("unable to determine the home directory: %v", err))
	}

	cfg := &entities.Config{
		CLIVersion:           *cliVersion,
		FQBN:                 fqbn,
		AdditionalURL:        additionalURL,
		PlatformsInput:       *platforms,
		LibrariesInput:       *libraries,
		SketchPathsInput:     *sketchPaths,
		ExtraCompileFlags:    fs.Args(),
		Verbose:              verbose,
		GitHubToken:          *githubToken,
		EnableDeltasReport:   enableDeltas,
		EnableWarningsReport: enableWarnings,
		SketchesReportPath:   *reportPath,
		Workspace:            envOrDefault("GITHUB_WORKSPACE", "."),
		Repository:           os.Getenv("GITHUB_REPOSITORY"),
		EventName:            os.Getenv("GITHUB_EVENT_NAME"),
		EventPath:            os.Getenv("GITHUB_EVENT_PATH"),
		GPGKeysPath:          *gpgKeysPath,
		GPGKeysURL:           *gpgKeysURL,
		Paths:                entities.DefaultInstallationPaths(home),
	}

	verifier := gpg.NewVerifier()
	if cfg.GPGKeysPath != "" {
		if err := verifier.ImportKeysFromFile(cfg.GPGKeysPath); err != nil {
			fail(log, err.Error())
		}
	}
	if cfg.GPGKeysURL != "" {
		if err := verifier.ImportKeysFromURL(ctx, cfg.GPGKeysURL); err != nil {
			fail(log, err.Error())
		}
	}

	cli := gateways.NewArduinoCLI(cfg.Paths.CLIInstallation, cfg.Paths, verbose, log)
	downloader := gateways.NewDownloader(log)
	git := gateways.NewGit(log)
	installer := gateways.NewInstaller(cfg, cli, downloader, git, verifier, log)
	finder := &gateways.SketchFinder{Workspace: cfg.Workspace, Log: log}
	github := gateways.NewGitHubClient(cfg.GitHubToken)

	orchestrator := orchestrators.NewCompileOrchestrator(cfg, cli, installer, finder, git, github, log)
	if err := orchestrator.Run(ctx); err != nil {
		if errors.Is(err, orchestrators.ErrCompilationFailed) {
			fail(log, "One or more compilations failed")
		}
		fail(log, err.Error())
	}
}

// handleDeprecatedInputs maps renamed workflow inputs onto their current
// equivalents and warns about the ones that no longer exist.
func handleDeprecatedInputs(log interfaces.Logger, deltasInput, reportPath *string) {
	if value, ok := os.LookupEnv("INPUT_ENABLE-SIZE-DELTAS-REPORT"); ok {
		log.Warning("The enable-size-deltas-report input is deprecated, use enable-deltas-report instead")
		if _, explicit := os.LookupEnv("INPUT_ENABLE-DELTAS-REPORT"); !explicit {
			*deltasInput = value
		}
	}
	if value, ok := os.LookupEnv("INPUT_SIZE-DELTAS-REPORT-FOLDER-NAME"); ok {
		log.Warning("The size-deltas-report-folder-name input is deprecated, use sketches-report-path instead")
		if _, explicit := os.LookupEnv("INPUT_SKETCHES-REPORT-PATH"); !explicit {
			*reportPath = value
		}
	}
	if _, ok := os.LookupEnv("INPUT_SIZE-REPORT-SKETCH"); ok {
		log.Warning("The size-report-sketch input is no longer supported and will be ignored")
	}
	if _, ok := os.LookupEnv("INPUT_ENABLE-SIZE-TRENDS-REPORT"); ok {
		log.Warning("The enable-size-trends-report input is no longer supported, use the trends subcommand instead")
	}
}

func fail(log interfaces.Logger, msg string) {
	log.Error(msg)
	os.Exit(1)
}

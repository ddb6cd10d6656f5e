package entities

import (
	"os"
	"path/filepath"
	"strings"
)

// InstallationPaths is the fixed set of directories the toolchain and its
// dependencies are installed into. Built once at startup and never mutated.
type InstallationPaths struct {
	CLIInstallation string // toolchain executable directory
	UserDirectory   string // sketchbook
	DataDirectory   string // package manager data directory
}

// DefaultInstallationPaths returns the conventional layout under home.
func DefaultInstallationPaths(home string) InstallationPaths {
	return InstallationPaths{
		CLIInstallation: filepath.Join(home, "bin"),
		UserDirectory:   filepath.Join(home, "Arduino"),
		DataDirectory:   filepath.Join(home, ".arduino15"),
	}
}

// Libraries returns the sketchbook libraries directory.
func (p InstallationPaths) Libraries() string {
	return filepath.Join(p.UserDirectory, "libraries")
}

// UserPlatforms returns the sketchbook hardware directory, the default
// destination for source-installed platforms.
func (p InstallationPaths) UserPlatforms() string {
	return filepath.Join(p.UserDirectory, "hardware")
}

// BoardManagerPlatforms returns the package manager's own platform storage
// tree, the destination for overwrite installs.
func (p InstallationPaths) BoardManagerPlatforms() string {
	return filepath.Join(p.DataDirectory, "packages")
}

// Config carries every input of a compile run. It is constructed once from
// flags and environment, validated, and passed by reference into each
// component; nothing mutates it afterwards.
type Config struct {
	CLIVersion           string
	FQBN                 string
	AdditionalURL        string // extra board manager index URL from the fqbn input
	PlatformsInput       string // raw YAML list of platform dependencies
	LibrariesInput       string // raw YAML list or legacy space-separated list
	SketchPathsInput     string
	ExtraCompileFlags    []string
	Verbose              bool
	GitHubToken          string
	EnableDeltasReport   bool
	EnableWarningsReport bool
	SketchesReportPath   string

	// Repository context, from the CI environment.
	Workspace  string // checkout root; relative inputs resolve against it
	Repository string // "owner/name"
	EventName  string
	EventPath  string

	// Armored GPG key source for download-dependency signature checks.
	GPGKeysPath string
	GPGKeysURL  string

	Paths InstallationPaths
}

// AbsolutePath resolves path against the workspace, expanding a leading ~.
func (c *Config) AbsolutePath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Workspace, path)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}

// PathRelativeToWorkspace returns path relative to the workspace when it is
// inside it, for human-targeted output. Paths outside the workspace are
// returned as given.
func (c *Config) PathRelativeToWorkspace(path string) string {
	abs := c.AbsolutePath(path)
	workspace := c.AbsolutePath(c.Workspace)
	rel, err := filepath.Rel(workspace, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return rel
}

// RepositoryName returns the name component of the owner/name repository
// identifier.
func (c *Config) RepositoryName() string {
	if i := strings.Index(c.Repository, "/"); i >= 0 {
		return c.Repository[i+1:]
	}
	return c.Repository
}

// CommitURL returns the web URL of a commit in the repository.
func (c *Config) CommitURL(hash string) string {
	return "https://github.com/" + c.Repository + "/commit/" + hash
}

// IsPullRequest reports whether the run was triggered by a pull request
// event.
func (c *Config) IsPullRequest() bool {
	return c.EventName == "pull_request"
}

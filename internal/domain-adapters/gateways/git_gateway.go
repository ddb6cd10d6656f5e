package gateways

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// Git runs git subcommands against a working tree via the git binary.
type Git struct {
	Log interfaces.Logger
}

// NewGit creates a new git gateway.
func NewGit(log interfaces.Logger) *Git {
	return &Git{Log: log}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// HeadSHA returns the commit hash the repository at dir currently has
// checked out.
func (g *Git) HeadSHA(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "HEAD")
}

// ParentSHA returns the hash of the immediate parent of the current commit.
func (g *Git) ParentSHA(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "rev-parse", "HEAD^")
}

// FetchRef fetches ref from origin at depth 1.
func (g *Git) FetchRef(ctx context.Context, dir, ref string) error {
	_, err := g.run(ctx, dir, "fetch", "--depth", "1", "--no-tags", "--prune", "--recurse-submodules", "origin", ref)
	return err
}

// Checkout switches the working tree at dir to ref.
func (g *Git) Checkout(ctx context.Context, dir, ref string) error {
	_, err := g.run(ctx, dir, "checkout", "--recurse-submodules", ref)
	return err
}

// Clone makes a shallow clone of the default branch of url into dir.
func (g *Git) Clone(ctx context.Context, url, dir string) error {
	_, err := g.run(ctx, "", "clone", "--depth", "1", "--shallow-submodules", "--recurse-submodules", url, dir)
	return err
}

// CloneAll clones the full history of url into dir so arbitrary refs and
// tags can be checked out afterwards.
func (g *Git) CloneAll(ctx context.Context, url, dir string) error {
	_, err := g.run(ctx, "", "clone", url, dir)
	return err
}

// CheckoutRef switches the clone at dir to ref and brings its submodules up
// to date.
func (g *Git) CheckoutRef(ctx context.Context, dir, ref string) error {
	if _, err := g.run(ctx, dir, "checkout", ref); err != nil {
		return err
	}
	_, err := g.run(ctx, dir, "submodule", "update", "--init", "--recursive", "--recommend-shallow")
	return err
}

// RefExists reports whether ref resolves in the repository at dir.
func (g *Git) RefExists(ctx context.Context, dir, ref string) bool {
	_, err := g.run(ctx, dir, "rev-parse", "--verify", "--quiet", ref)
	return err == nil
}

// LatestTag returns the most recently created tag in the repository at dir.
func (g *Git) LatestTag(ctx context.Context, dir string) (string, error) {
	output, err := g.run(ctx, dir, "for-each-ref", "refs/tags", "--sort=creatordate", "--format=%(refname:short)")
	if err != nil {
		return "", err
	}
	if output == "" {
		return "", fmt.Errorf("no tags found in repository at %s", dir)
	}
	lines := strings.Split(output, "\n")
	return lines[len(lines)-1], nil
}

// ResolveRef maps a requested version to a checkoutable ref for the
// repository at dir. The "latest" indicator resolves to a literal ref of
// that name when one exists, otherwise to the newest tag. An empty version
// means the default branch as cloned.
func (g *Git) ResolveRef(ctx context.Context, dir, version string) (string, error) {
	if version == "" {
		return "", nil
	}
	if version != entities.LatestVersionIndicator {
		return version, nil
	}
	if g.RefExists(ctx, dir, version) {
		return version, nil
	}
	tag, err := g.LatestTag(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("unable to resolve latest release: %w", err)
	}
	return tag, nil
}

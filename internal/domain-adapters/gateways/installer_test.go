package gateways

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// writeStubCLI installs a fake arduino-cli that reports one installed
// platform, so target resolution can be exercised without the real tool.
func writeStubCLI(t *testing.T, dir string) {
	t.Helper()
	script := `#!/bin/sh
if [ "$1" = "core" ] && [ "$2" = "list" ]; then
  echo '[{"ID":"arduino:avr","Installed":"1.8.6"}]'
fi
exit 0
`
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	//nolint:gosec // test helper writes an executable stub
	if err := os.WriteFile(filepath.Join(dir, "arduino-cli"), []byte(script), 0700); err != nil {
		t.Fatal(err)
	}
}

func newTestInstaller(t *testing.T) *Installer {
	t.Helper()
	home := t.TempDir()
	workspace := t.TempDir()
	paths := entities.DefaultInstallationPaths(home)
	writeStubCLI(t, paths.CLIInstallation)

	cfg := &entities.Config{
		Workspace:  workspace,
		Repository: "octocat/FooLib",
		Paths:      paths,
	}
	log := interfaces.NoOpLogger{}
	cli := NewArduinoCLI(paths.CLIInstallation, paths, false, log)
	installer := NewInstaller(cfg, cli, NewDownloader(log), NewGit(log), nil, log)
	t.Cleanup(installer.Cleanup)
	return installer
}

func TestPlatformInstallationTarget(t *testing.T) {
	installer := newTestInstaller(t)
	ctx := context.Background()

	t.Run("board manager installation is replaced in place", func(t *testing.T) {
		target, err := installer.PlatformInstallationTarget(ctx, "arduino:avr")
		if err != nil {
			t.Fatalf("PlatformInstallationTarget() error: %v", err)
		}
		expected := filepath.Join(installer.Config.Paths.BoardManagerPlatforms(), "arduino", "hardware", "avr")
		if target.ParentPath != expected {
			t.Errorf("ParentPath = %s, want %s", target.ParentPath, expected)
		}
		if target.Name != "1.8.6" {
			t.Errorf("Name = %s, want 1.8.6", target.Name)
		}
		if !target.Overwrite {
			t.Error("board manager replacement must overwrite")
		}
	})

	t.Run("unknown platform goes under the sketchbook", func(t *testing.T) {
		target, err := installer.PlatformInstallationTarget(ctx, "foo:bar")
		if err != nil {
			t.Fatalf("PlatformInstallationTarget() error: %v", err)
		}
		expected := filepath.Join(installer.Config.Paths.UserPlatforms(), "foo")
		if target.ParentPath != expected {
			t.Errorf("ParentPath = %s, want %s", target.ParentPath, expected)
		}
		if target.Name != "bar" {
			t.Errorf("Name = %s, want bar", target.Name)
		}
		if target.Overwrite {
			t.Error("sketchbook installs must not overwrite")
		}
	})
}

func TestInstallFromPath(t *testing.T) {
	installer := newTestInstaller(t)
	source := t.TempDir()

	target := entities.InstallationTarget{
		ParentPath: filepath.Join(t.TempDir(), "libraries"),
		Name:       "MyLib",
		Overwrite:  false,
	}

	if err := installer.installFromPath(source, target); err != nil {
		t.Fatalf("installFromPath() error: %v", err)
	}
	linked, err := os.Readlink(target.Path())
	if err != nil {
		t.Fatalf("expected a symlink at %s: %v", target.Path(), err)
	}
	if linked != source {
		t.Errorf("symlink points at %s, want %s", linked, source)
	}

	// A second install without overwrite is refused.
	if err := installer.installFromPath(source, target); err == nil {
		t.Error("expected an error when the installation already exists")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %q", err)
	}

	// With overwrite the existing link is replaced.
	target.Overwrite = true
	other := t.TempDir()
	if err := installer.installFromPath(other, target); err != nil {
		t.Fatalf("installFromPath() with overwrite error: %v", err)
	}
	linked, err = os.Readlink(target.Path())
	if err != nil {
		t.Fatal(err)
	}
	if linked != other {
		t.Errorf("symlink points at %s, want %s", linked, other)
	}
}

func TestInstallPathLibraryNaming(t *testing.T) {
	installer := newTestInstaller(t)
	workspace := installer.Config.Workspace

	libDir := filepath.Join(workspace, "SomeLibrary")
	if err := os.MkdirAll(libDir, 0750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		dependency *entities.DependencyDeclaration
		expected   string
	}{
		{
			name:       "destination name wins",
			dependency: &entities.DependencyDeclaration{SourcePath: "SomeLibrary", DestinationName: "Renamed"},
			expected:   "Renamed",
		},
		{
			name:       "directory name by default",
			dependency: &entities.DependencyDeclaration{SourcePath: "SomeLibrary"},
			expected:   "SomeLibrary",
		},
		{
			name:       "workspace root uses the repository name",
			dependency: &entities.DependencyDeclaration{SourcePath: "."},
			expected:   "FooLib",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := installer.installPathLibrary(tt.dependency); err != nil {
				t.Fatalf("installPathLibrary() error: %v", err)
			}
			installed := filepath.Join(installer.Config.Paths.Libraries(), tt.expected)
			if _, err := os.Lstat(installed); err != nil {
				t.Errorf("expected installation at %s: %v", installed, err)
			}
		})
	}
}

func TestInstallPathLibraryMissingSource(t *testing.T) {
	installer := newTestInstaller(t)
	err := installer.installPathLibrary(&entities.DependencyDeclaration{SourcePath: "does-not-exist"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "doesn't exist") {
		t.Errorf("error = %q", err)
	}
}

func TestRepositoryName(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{url: "https://github.com/arduino/ArduinoCore-avr.git", expected: "ArduinoCore-avr"},
		{url: "https://github.com/arduino/ArduinoCore-avr.git/", expected: "ArduinoCore-avr"},
		{url: "git://host/Servo", expected: "Servo"},
	}
	for _, tt := range tests {
		if got := repositoryName(tt.url); got != tt.expected {
			t.Errorf("repositoryName(%q) = %s, want %s", tt.url, got, tt.expected)
		}
	}
}

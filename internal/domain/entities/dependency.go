package entities

import "path/filepath"

// LatestVersionIndicator is the special version string meaning "newest
// release". For manager dependencies it is resolved by the package index; for
// repository dependencies it resolves to a real ref named "latest" when one
// exists, otherwise to the most recently committed tag.
const LatestVersionIndicator = "latest"

// DependencyDeclaration describes one platform or library dependency of the
// sketches under test. All fields are optional; the combination of populated
// fields determines the installation source (see services.SortDependencies).
type DependencyDeclaration struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	SourcePath      string `yaml:"source-path"`
	SourceURL       string `yaml:"source-url"`
	DestinationName string `yaml:"destination-name"`

	// Integrity checks for download-sourced dependencies. Checksum has the
	// form "sha256:<hex>". SignatureURL points at a detached GPG signature
	// of the downloaded archive.
	Checksum     string `yaml:"checksum"`
	SignatureURL string `yaml:"signature-url"`
}

// ManagerName returns the name argument to pass to the package manager,
// using NAME@VERSION syntax when a version other than "latest" is declared.
// Omitting the version makes the manager install the newest release, so the
// "latest" indicator maps to a bare name.
func (d *DependencyDeclaration) ManagerName() string {
	if d.Version != "" && d.Version != LatestVersionIndicator {
		return d.Name + "@" + d.Version
	}
	return d.Name
}

// DependencyBuckets holds dependency declarations sorted by installation
// source. Every non-nil input declaration lands in exactly one bucket.
type DependencyBuckets struct {
	Manager    []*DependencyDeclaration
	Path       []*DependencyDeclaration
	Repository []*DependencyDeclaration
	Download   []*DependencyDeclaration
}

// InstallationTarget is the resolved destination for a platform dependency.
// When a package-manager installation of the same platform already exists,
// the target points into the package manager's own storage tree and Overwrite
// is set, so the source-based install replaces it. Otherwise the target is
// under the user sketchbook.
type InstallationTarget struct {
	ParentPath string
	Name       string
	Overwrite  bool
}

// Path returns the full installation path.
func (t InstallationTarget) Path() string {
	return filepath.Join(t.ParentPath, t.Name)
}

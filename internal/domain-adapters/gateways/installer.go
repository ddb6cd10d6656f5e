package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/domain/interfaces"
	"github.com/ochairo/sketchci/internal/domain/services"
	"github.com/ochairo/sketchci/internal/external-adapters/gpg"
)

const (
	cliDownloadURLTemplate = "https://downloads.arduino.cc/arduino-cli/arduino-cli_%s_%s.tar.gz"
	cliRepository          = "arduino/arduino-cli"
)

// Installer resolves and installs the toolchain, platform, and library
// dependencies of a compile run. Each dependency is routed to one of four
// installation methods depending on how it is declared.
type Installer struct {
	Config     *entities.Config
	CLI        *ArduinoCLI
	Downloader *Downloader
	Git        *Git
	GPG        *gpg.Verifier
	Versions   *VersionFetcher
	Log        interfaces.Logger

	tempDir string
}

// NewInstaller creates an installer over the given gateways.
func NewInstaller(cfg *entities.Config, cli *ArduinoCLI, downloader *Downloader, git *Git, verifier *gpg.Verifier, log interfaces.Logger) *Installer {
	return &Installer{
		Config:     cfg,
		CLI:        cli,
		Downloader: downloader,
		Git:        git,
		GPG:        verifier,
		Versions:   NewVersionFetcher(),
		Log:        log,
	}
}

func (i *Installer) temp() (string, error) {
	if i.tempDir == "" {
		dir, err := os.MkdirTemp("", "sketchci-")
		if err != nil {
			return "", fmt.Errorf("failed to create temporary directory: %w", err)
		}
		i.tempDir = dir
	}
	return i.tempDir, nil
}

// Cleanup removes the installer's temporary workspace.
func (i *Installer) Cleanup() {
	if i.tempDir != "" {
		_ = os.RemoveAll(i.tempDir)
		i.tempDir = ""
	}
}

func cliArchivePlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS_64bit"
	case "windows":
		return "Windows_64bit"
	default:
		if runtime.GOARCH == "arm64" {
			return "Linux_ARM64"
		}
		return "Linux_64bit"
	}
}

// InstallCLI downloads the requested arduino-cli release and installs its
// executable into the configured installation directory.
func (i *Installer) InstallCLI(ctx context.Context) error {
	version := i.Config.CLIVersion
	if version == entities.LatestVersionIndicator {
		resolved, err := i.Versions.LatestRelease(ctx, cliRepository)
		if err != nil {
			return err
		}
		version = resolved
	}
	i.Log.Info(fmt.Sprintf("Installing arduino-cli %s", version))

	tempDir, err := i.temp()
	if err != nil {
		return err
	}

	url := fmt.Sprintf(cliDownloadURLTemplate, version, cliArchivePlatform())
	dependency := &entities.DependencyDeclaration{
		Name:       "arduino-cli",
		SourceURL:  url,
		SourcePath: "arduino-cli",
	}
	target := entities.InstallationTarget{
		ParentPath: i.Config.Paths.CLIInstallation,
		Name:       "arduino-cli",
		Overwrite:  false,
	}
	return i.installFromDownload(ctx, dependency, target, filepath.Join(tempDir, "cli"))
}

// InstallPlatforms installs every platform dependency, dispatching each to
// its installation method. Board manager installs go first so that source
// installs can overwrite the platform bundle they shadow.
func (i *Installer) InstallPlatforms(ctx context.Context, dependencies []*entities.DependencyDeclaration) error {
	buckets := services.SortDependencies(dependencies)

	if len(buckets.Manager) > 0 {
		if err := i.installManagerPlatforms(ctx, buckets.Manager); err != nil {
			return err
		}
	}
	for _, dependency := range buckets.Path {
		if err := i.installPathPlatform(ctx, dependency); err != nil {
			return err
		}
	}
	for _, dependency := range buckets.Repository {
		if err := i.installRepositoryPlatform(ctx, dependency); err != nil {
			return err
		}
	}
	for _, dependency := range buckets.Download {
		if err := i.installDownloadPlatform(ctx, dependency); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) installManagerPlatforms(ctx context.Context, dependencies []*entities.DependencyDeclaration) error {
	i.Log.Info("Installing platforms from the board manager")
	for _, dependency := range dependencies {
		if err := i.CLI.UpdateIndex(ctx, dependency.SourceURL); err != nil {
			return fmt.Errorf("failed to update platform index: %w", err)
		}
		if err := i.CLI.InstallPlatform(ctx, dependency.ManagerName(), dependency.SourceURL); err != nil {
			return fmt.Errorf("failed to install platform %s: %w", dependency.Name, err)
		}
	}
	return nil
}

// PlatformInstallationTarget determines where a source-installed platform
// lands. A platform already installed through the board manager is replaced
// in place inside the package tree; anything else goes under the sketchbook
// hardware directory named by the vendor and architecture components of the
// platform name.
func (i *Installer) PlatformInstallationTarget(ctx context.Context, platformName string) (entities.InstallationTarget, error) {
	vendor := platformName
	if idx := strings.Index(platformName, ":"); idx >= 0 {
		vendor = platformName[:idx]
	}
	architecture := platformName
	if idx := strings.LastIndex(platformName, ":"); idx >= 0 {
		architecture = platformName[idx+1:]
	}

	target := entities.InstallationTarget{
		ParentPath: filepath.Join(i.Config.Paths.UserPlatforms(), vendor),
		Name:       architecture,
		Overwrite:  false,
	}

	installed, err := i.CLI.InstalledPlatforms(ctx)
	if err != nil {
		return entities.InstallationTarget{}, err
	}
	for _, platform := range installed {
		if platform.ID == platformName {
			target = entities.InstallationTarget{
				ParentPath: filepath.Join(i.Config.Paths.BoardManagerPlatforms(), vendor, "hardware", architecture),
				Name:       platform.Installed,
				Overwrite:  true,
			}
			break
		}
	}

	return target, nil
}

func (i *Installer) installPathPlatform(ctx context.Context, dependency *entities.DependencyDeclaration) error {
	i.Log.Info(fmt.Sprintf("Installing platform %s from path %s", dependency.Name, dependency.SourcePath))

	target, err := i.PlatformInstallationTarget(ctx, dependency.Name)
	if err != nil {
		return err
	}

	sourcePath := i.Config.AbsolutePath(dependency.SourcePath)
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("platform source path: %s doesn't exist", dependency.SourcePath)
	}

	return i.installFromPath(sourcePath, target)
}

func (i *Installer) installRepositoryPlatform(ctx context.Context, dependency *entities.DependencyDeclaration) error {
	i.Log.Info(fmt.Sprintf("Installing platform %s from repository %s", dependency.Name, dependency.SourceURL))

	target, err := i.PlatformInstallationTarget(ctx, dependency.Name)
	if err != nil {
		return err
	}

	tempDir, err := i.temp()
	if err != nil {
		return err
	}
	cloneDir, err := os.MkdirTemp(tempDir, "repo-")
	if err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	return i.installFromRepository(ctx, dependency, target, cloneDir)
}

func (i *Installer) installDownloadPlatform(ctx context.Context, dependency *entities.DependencyDeclaration) error {
	i.Log.Info(fmt.Sprintf("Installing platform %s from download %s", dependency.Name, dependency.SourceURL))

	target, err := i.PlatformInstallationTarget(ctx, dependency.Name)
	if err != nil {
		return err
	}

	tempDir, err := i.temp()
	if err != nil {
		return err
	}
	workDir, err := os.MkdirTemp(tempDir, "download-")
	if err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	return i.installFromDownload(ctx, dependency, target, workDir)
}

// InstallLibraries installs every library dependency. Board manager
// libraries install one at a time so a failure names its culprit; everything
// else lands in the sketchbook libraries directory with overwrite enabled.
func (i *Installer) InstallLibraries(ctx context.Context, dependencies []*entities.DependencyDeclaration) error {
	buckets := services.SortDependencies(dependencies)

	for _, dependency := range buckets.Manager {
		i.Log.Info(fmt.Sprintf("Installing library %s from the library manager", dependency.Name))
		if err := i.CLI.InstallLibrary(ctx, dependency.ManagerName()); err != nil {
			return fmt.Errorf("failed to install library %s: %w", dependency.Name, err)
		}
	}
	for _, dependency := range buckets.Path {
		if err := i.installPathLibrary(dependency); err != nil {
			return err
		}
	}
	for _, dependency := range buckets.Repository {
		if err := i.installRepositoryLibrary(ctx, dependency); err != nil {
			return err
		}
	}
	for _, dependency := range buckets.Download {
		if err := i.installDownloadLibrary(ctx, dependency); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) libraryTarget(name string) entities.InstallationTarget {
	return entities.InstallationTarget{
		ParentPath: i.Config.Paths.Libraries(),
		Name:       name,
		Overwrite:  true,
	}
}

func (i *Installer) installPathLibrary(dependency *entities.DependencyDeclaration) error {
	sourcePath := i.Config.AbsolutePath(dependency.SourcePath)
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("library source path: %s doesn't exist", dependency.SourcePath)
	}

	name := dependency.DestinationName
	if name == "" {
		if sourcePath == i.Config.AbsolutePath(i.Config.Workspace) {
			// Installing the workspace itself; the directory name is the CI
			// runner's checkout folder, so use the repository name instead.
			name = i.Config.RepositoryName()
		} else {
			name = filepath.Base(sourcePath)
		}
	}

	i.Log.Info(fmt.Sprintf("Installing library from path %s", dependency.SourcePath))
	return i.installFromPath(sourcePath, i.libraryTarget(name))
}

func (i *Installer) installRepositoryLibrary(ctx context.Context, dependency *entities.DependencyDeclaration) error {
	i.Log.Info(fmt.Sprintf("Installing library from repository %s", dependency.SourceURL))

	name := dependency.DestinationName
	if name == "" {
		name = repositoryName(dependency.SourceURL)
	}

	tempDir, err := i.temp()
	if err != nil {
		return err
	}
	cloneDir, err := os.MkdirTemp(tempDir, "repo-")
	if err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	return i.installFromRepository(ctx, dependency, i.libraryTarget(name), cloneDir)
}

func (i *Installer) installDownloadLibrary(ctx context.Context, dependency *entities.DependencyDeclaration) error {
	i.Log.Info(fmt.Sprintf("Installing library from download %s", dependency.SourceURL))

	name := dependency.DestinationName
	if name == "" {
		name = "." // resolved from the archive root after extraction
	}

	tempDir, err := i.temp()
	if err != nil {
		return err
	}
	workDir, err := os.MkdirTemp(tempDir, "download-")
	if err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	return i.installFromDownload(ctx, dependency, i.libraryTarget(name), workDir)
}

// installFromPath links sourcePath into the target location. An existing
// installation is replaced when the target allows overwriting and is fatal
// otherwise.
func (i *Installer) installFromPath(sourcePath string, target entities.InstallationTarget) error {
	destination := target.Path()
	if _, err := os.Lstat(destination); err == nil {
		if !target.Overwrite {
			return fmt.Errorf("installation already exists: %s", destination)
		}
		if err := os.RemoveAll(destination); err != nil {
			return fmt.Errorf("failed to remove existing installation: %w", err)
		}
	}
	if err := os.MkdirAll(target.ParentPath, 0750); err != nil {
		return fmt.Errorf("failed to create installation directory: %w", err)
	}
	if err := os.Symlink(sourcePath, destination); err != nil {
		return fmt.Errorf("failed to link %s into place: %w", sourcePath, err)
	}
	i.Log.Debug(fmt.Sprintf("Linked %s -> %s", destination, sourcePath))
	return nil
}

// installFromDownload fetches the dependency's archive, verifies it, and
// installs the configured source path from the extracted tree.
func (i *Installer) installFromDownload(ctx context.Context, dependency *entities.DependencyDeclaration, target entities.InstallationTarget, workDir string) error {
	if err := os.MkdirAll(workDir, 0750); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	archivePath, err := i.Downloader.Fetch(dependency.SourceURL, workDir)
	if err != nil {
		return err
	}

	if dependency.Checksum != "" {
		if err := VerifyChecksum(archivePath, dependency.Checksum); err != nil {
			return err
		}
		i.Log.Debug(fmt.Sprintf("Checksum verified for %s", filepath.Base(archivePath)))
	}
	if dependency.SignatureURL != "" {
		if err := i.verifySignature(ctx, archivePath, dependency.SignatureURL); err != nil {
			return err
		}
		i.Log.Debug(fmt.Sprintf("Signature verified for %s", filepath.Base(archivePath)))
	}

	extractDir := filepath.Join(workDir, "extracted")
	if err := i.Downloader.Extract(archivePath, extractDir); err != nil {
		return err
	}
	rootPath, err := ArchiveRootPath(extractDir)
	if err != nil {
		return err
	}

	sourcePath := rootPath
	if dependency.SourcePath != "" && dependency.SourcePath != "." {
		sourcePath = filepath.Join(rootPath, dependency.SourcePath)
		if _, err := os.Stat(sourcePath); err != nil {
			return fmt.Errorf("path %s not found in %s", dependency.SourcePath, dependency.SourceURL)
		}
	}

	if target.Name == "." {
		target.Name = filepath.Base(sourcePath)
	}
	return i.installFromPath(sourcePath, target)
}

func (i *Installer) verifySignature(ctx context.Context, archivePath, signatureURL string) error {
	if i.GPG == nil || i.GPG.KeyCount() == 0 {
		return fmt.Errorf("signature-url specified for %s but no GPG keys are configured", filepath.Base(archivePath))
	}
	return i.GPG.VerifyDetached(ctx, archivePath, signatureURL)
}

// installFromRepository clones the dependency's repository, checks out the
// requested version, and installs the configured source path.
func (i *Installer) installFromRepository(ctx context.Context, dependency *entities.DependencyDeclaration, target entities.InstallationTarget, cloneDir string) error {
	if dependency.Version == "" {
		if err := i.Git.Clone(ctx, dependency.SourceURL, cloneDir); err != nil {
			return err
		}
	} else {
		// Resolving "latest" needs the tag list, so take the full history.
		if err := i.Git.CloneAll(ctx, dependency.SourceURL, cloneDir); err != nil {
			return err
		}
		ref, err := i.Git.ResolveRef(ctx, cloneDir, dependency.Version)
		if err != nil {
			return err
		}
		if err := i.Git.CheckoutRef(ctx, cloneDir, ref); err != nil {
			return err
		}
	}

	sourcePath := cloneDir
	if dependency.SourcePath != "" && dependency.SourcePath != "." {
		sourcePath = filepath.Join(cloneDir, dependency.SourcePath)
		if _, err := os.Stat(sourcePath); err != nil {
			return fmt.Errorf("path %s not found in %s", dependency.SourcePath, dependency.SourceURL)
		}
	}

	if target.Name == "." {
		target.Name = repositoryName(dependency.SourceURL)
	}
	return i.installFromPath(sourcePath, target)
}

// repositoryName derives an installation name from a clone URL.
func repositoryName(url string) string {
	name := strings.TrimRight(url, "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

package gateways

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/sketchci/internal/domain/interfaces"
)

// Downloader fetches archives over HTTP and extracts them. Downloads have no
// timeout of their own; the transport's limits are the only boundary, and a
// failure is fatal to the run rather than retried.
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	Log        interfaces.Logger
}

// NewDownloader creates a new downloader.
func NewDownloader(log interfaces.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{},
		userAgent:  "sketchci/1.0",
		Log:        log,
	}
}

// Fetch downloads url into destDir, named after the final URL path element,
// and returns the downloaded file's path.
func (d *Downloader) Fetch(url, destDir string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download of %s failed: %w", url, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s failed: HTTP %d", url, resp.StatusCode)
	}

	filename := filepath.Base(strings.TrimRight(url, "/"))
	destPath := filepath.Join(destDir, filename)

	//nolint:gosec // G304: destination is under a caller-owned temporary directory
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	d.Log.Debug(fmt.Sprintf("Downloaded %s (%d bytes)", filename, written))

	return destPath, nil
}

// Extract unpacks a .tar.gz, .tgz, or .zip archive into destDir.
func (d *Downloader) Extract(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz"):
		return d.extractTarGz(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".zip"):
		return d.extractZip(archivePath, destDir)
	}
	return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
}

func (d *Downloader) extractTarGz(tarPath, destDir string) error {
	//nolint:gosec // G304: archive path comes from our own download step
	file, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("failed to open tar.gz: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	// Symlinks are created in a second pass so their targets exist first.
	type symlinkInfo struct {
		target   string
		linkname string
	}
	var symlinks []symlinkInfo

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		//nolint:gosec // G305: path traversal validated by HasPrefix check below
		target := filepath.Join(destDir, header.Name)
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)) {
			return fmt.Errorf("invalid file path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			//nolint:gosec // G115: tar header mode fits a file mode
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			// 1GB per-file cap against decompression bombs.
			if _, err := io.Copy(outFile, io.LimitReader(tr, 1<<30)); err != nil {
				_ = outFile.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			if err := outFile.Close(); err != nil {
				return fmt.Errorf("failed to close file: %w", err)
			}
		case tar.TypeSymlink:
			symlinks = append(symlinks, symlinkInfo{target: target, linkname: header.Linkname})
		default:
			d.Log.Debug(fmt.Sprintf("ignoring unsupported archive entry type %c: %s", header.Typeflag, header.Name))
		}
	}

	for _, link := range symlinks {
		if err := os.MkdirAll(filepath.Dir(link.target), 0750); err != nil {
			return fmt.Errorf("failed to create directory for symlink: %w", err)
		}
		if err := os.Symlink(link.linkname, link.target); err != nil {
			// Some archives carry broken symlinks; warn and continue.
			d.Log.Debug(fmt.Sprintf("failed to create symlink %s -> %s: %v", link.target, link.linkname, err))
		}
	}

	return nil
}

func (d *Downloader) extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on read-only archive
	defer reader.Close()

	for _, entry := range reader.File {
		//nolint:gosec // G305: path traversal validated by HasPrefix check below
		target := filepath.Join(destDir, entry.Name)
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)) {
			return fmt.Errorf("invalid file path in archive: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
		in, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}
		outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, entry.Mode())
		if err != nil {
			_ = in.Close()
			return fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := io.Copy(outFile, io.LimitReader(in, 1<<30)); err != nil {
			_ = in.Close()
			_ = outFile.Close()
			return fmt.Errorf("failed to write file: %w", err)
		}
		_ = in.Close()
		if err := outFile.Close(); err != nil {
			return fmt.Errorf("failed to close file: %w", err)
		}
	}

	return nil
}

// ArchiveRootPath determines the effective root of an extracted archive.
// Archives that consist of exactly one top-level directory (ignoring the
// __MACOSX metadata folder) are rooted at that directory; anything else is
// rooted at the extraction directory itself.
func ArchiveRootPath(extractDir string) (string, error) {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted directory: %w", err)
	}

	root := extractDir
	for _, entry := range entries {
		if !entry.IsDir() {
			return extractDir, nil
		}
		if entry.Name() == "__MACOSX" {
			continue
		}
		if root != extractDir {
			// More than one top-level directory.
			return extractDir, nil
		}
		root = filepath.Join(extractDir, entry.Name())
	}
	return root, nil
}

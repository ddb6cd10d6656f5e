package services

import (
	"regexp"
	"strings"

	"github.com/ochairo/sketchci/internal/domain/entities"
)

// packageIndexPattern matches URLs that follow the package index filename
// convention. Such URLs are additional board manager indexes, not a distinct
// dependency source.
var packageIndexPattern = regexp.MustCompile(`/package_.*index\.json`)

// SortDependencies classifies dependency declarations into installation
// source buckets. Nil declarations (empty YAML list items) are dropped. The
// source-url check runs first regardless of a source-path being present,
// because a source-path alongside a source-url selects a subdirectory of the
// fetched source rather than a local path.
func SortDependencies(dependencies []*entities.DependencyDeclaration) *entities.DependencyBuckets {
	buckets := &entities.DependencyBuckets{}
	for _, dependency := range dependencies {
		if dependency == nil {
			continue
		}
		switch {
		case dependency.SourceURL != "":
			url := dependency.SourceURL
			switch {
			// Repositories are identified by the URL starting with git:// or
			// ending in .git.
			case strings.HasSuffix(strings.TrimRight(url, "/"), ".git") || strings.HasPrefix(url, "git://"):
				buckets.Repository = append(buckets.Repository, dependency)
			case packageIndexPattern.MatchString(url):
				buckets.Manager = append(buckets.Manager, dependency)
			default:
				// All other URLs are assumed to be downloads.
				buckets.Download = append(buckets.Download, dependency)
			}
		case dependency.SourcePath != "":
			buckets.Path = append(buckets.Path, dependency)
		default:
			// Bare names go through the package manager.
			buckets.Manager = append(buckets.Manager, dependency)
		}
	}
	return buckets
}

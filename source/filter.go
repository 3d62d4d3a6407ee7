package source

import (
	"path"
	"strings"

	"github.com/go-enry/go-enry/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnorePatterns are excluded from discovery regardless of the
// repository's own ignore files.
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"*.lock",
	"*.min.js",
	"*.min.css",
	"*.map",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.pdf",
	"*.zip",
	"*.tar.gz",
}

// Filter decides which discovered files are worth indexing.
type Filter struct {
	ignore *gitignore.GitIgnore
}

// NewFilter compiles the default patterns plus any extra ignore lines, such
// as the contents of a repository's .gitignore.
func NewFilter(extra ...string) *Filter {
	lines := make([]string, 0, len(defaultIgnorePatterns)+len(extra))
	lines = append(lines, defaultIgnorePatterns...)
	for _, line := range extra {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return &Filter{ignore: gitignore.CompileIgnoreLines(lines...)}
}

// IgnoreLines splits an ignore file into pattern lines.
func IgnoreLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// KeepPath reports whether p survives the path-only checks: ignore patterns,
// vendored code, dot files and generated or image assets.
func (f *Filter) KeepPath(p string) bool {
	if f.ignore.MatchesPath(p) {
		return false
	}
	if enry.IsVendor(p) || enry.IsDotFile(path.Base(p)) || enry.IsImage(p) {
		return false
	}
	return true
}

// Keep reports whether a file with the given content should be indexed.
func (f *Filter) Keep(p string, content []byte) bool {
	if !f.KeepPath(p) {
		return false
	}
	if enry.IsBinary(content) || enry.IsGenerated(p, content) {
		return false
	}
	return true
}

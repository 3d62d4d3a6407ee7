package qa

import (
	"fmt"
	"strings"

	"github.com/poiesic/docquery/core"
)

// FormatContext renders documents as one labeled block, numbered from 1:
//
//	Document 1 (path):
//	text
//
// An empty list renders as NoContext.
func FormatContext(docs []core.RetrievedDocument) string {
	if len(docs) == 0 {
		return NoContext
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		path := doc.SourcePath
		if path == "" {
			path = "unknown"
		}
		parts[i] = fmt.Sprintf("Document %d (%s):\n%s\n", i+1, path, doc.Text)
	}
	return strings.Join(parts, "\n")
}

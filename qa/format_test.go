package qa

import (
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
)

func TestFormatContext(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, NoContext, FormatContext(nil))
	})

	t.Run("labels and separators", func(t *testing.T) {
		got := FormatContext([]core.RetrievedDocument{
			{Text: "alpha", SourcePath: "a.md"},
			{Text: "beta", SourcePath: ""},
		})
		assert.Equal(t, "Document 1 (a.md):\nalpha\n\nDocument 2 (unknown):\nbeta\n", got)
	})
}

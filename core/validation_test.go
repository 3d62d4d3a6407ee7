package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRepositoryRef(t *testing.T) {
	valid := func() *RepositoryRef {
		return &RepositoryRef{
			Name:      "widgets",
			FullName:  "acme/widgets",
			Branch:    "main",
			FilesPath: []string{"README.md"},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*RepositoryRef)
		wantErr error
	}{
		{"valid", func(*RepositoryRef) {}, nil},
		{"empty file list is allowed", func(r *RepositoryRef) { r.FilesPath = nil }, nil},
		{"empty full name", func(r *RepositoryRef) { r.FullName = "" }, ErrEmptyFullName},
		{"no slash", func(r *RepositoryRef) { r.FullName = "widgets" }, ErrMalformedFullName},
		{"too many slashes", func(r *RepositoryRef) { r.FullName = "a/b/c" }, ErrMalformedFullName},
		{"empty owner", func(r *RepositoryRef) { r.FullName = "/widgets" }, ErrMalformedFullName},
		{"empty branch", func(r *RepositoryRef) { r.Branch = "" }, ErrEmptyBranch},
		{"blank path", func(r *RepositoryRef) { r.FilesPath = []string{"a.go", "  "} }, ErrEmptyPath},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref := valid()
			tc.mutate(ref)
			err := ValidateRepositoryRef(ref)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrInvalidRepositoryRef)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateRepositoryRef(nil), ErrInvalidRepositoryRef)
	})
}

func TestValidateQARequest(t *testing.T) {
	assert.NoError(t, ValidateQARequest(&QARequest{Question: "how?", RepositoryName: "acme/widgets"}))
	assert.ErrorIs(t, ValidateQARequest(nil), ErrInvalidQARequest)
	assert.ErrorIs(t, ValidateQARequest(&QARequest{Question: " ", RepositoryName: "acme/widgets"}), ErrEmptyQuestion)
	assert.ErrorIs(t, ValidateQARequest(&QARequest{Question: "how?"}), ErrEmptyFullName)
}

func TestSplitFullName(t *testing.T) {
	owner, repo, ok := SplitFullName("acme/widgets")
	assert.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)

	_, _, ok = SplitFullName("acme")
	assert.False(t, ok)
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterKeepPath(t *testing.T) {
	f := NewFilter(IgnoreLines("# build output\n\ntmp/\n*.log\n")...)

	testCases := []struct {
		path string
		keep bool
	}{
		{"main.go", true},
		{"internal/server/server.go", true},
		{"README.md", true},
		{"vendor/github.com/x/y.go", false},
		{"node_modules/react/index.js", false},
		{"assets/logo.png", false},
		{"tmp/scratch.go", false},
		{"debug.log", false},
		{".env", false},
		{"yarn.lock", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.keep, f.KeepPath(tc.path))
		})
	}
}

func TestFilterKeep(t *testing.T) {
	f := NewFilter()
	assert.True(t, f.Keep("main.go", []byte("package main\n")))
	assert.False(t, f.Keep("blob.dat", []byte{0x00, 0x01, 0x02, 0x00, 0xff}))
}

package main

import (
	"bytes"
	"errors"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logomotion/gemini"
)

func TestParseGlobalArgs(t *testing.T) {
	var out bytes.Buffer

	opts, err := parseGlobalArgs([]string{"-config", "lm.yaml", "generate", "-logo", "fox"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "lm.yaml", opts.configPath)
	assert.False(t, opts.version)
	assert.Equal(t, []string{"generate", "-logo", "fox"}, opts.args)

	opts, err = parseGlobalArgs([]string{"-v"}, &out)
	require.NoError(t, err)
	assert.True(t, opts.version)

	opts, err = parseGlobalArgs([]string{"-update"}, &out)
	require.NoError(t, err)
	assert.True(t, opts.update)
	assert.Empty(t, opts.args)
}

func TestParseGlobalArgsHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := parseGlobalArgs([]string{"-h"}, &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "logomotion [OPTIONS] generate")
}

func TestParseGenerateArgs(t *testing.T) {
	var out bytes.Buffer

	opts, err := parseGenerateArgs([]string{"-logo", " A fox ", "-animate", "spin", "-aspect", "9:16", "-out", "build"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "A fox", opts.Logo)
	assert.Empty(t, opts.Upload)
	assert.Equal(t, "spin", opts.Animate)
	assert.Equal(t, gemini.AspectPortrait, opts.Aspect)
	assert.Equal(t, "build", opts.Out)

	opts, err = parseGenerateArgs([]string{"-upload", filepath.Join("img", "logo.png"), "-animate", "spin"}, &out)
	require.NoError(t, err)
	assert.Equal(t, gemini.AspectLandscape, opts.Aspect)
	assert.Equal(t, ".", opts.Out)
}

func TestParseGenerateArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"-animate", "spin"}, "one of -logo or -upload is required"},
		{"both sources", []string{"-logo", "fox", "-upload", "a.png", "-animate", "spin"}, "cannot be used together"},
		{"no motion", []string{"-logo", "fox"}, "-animate is required"},
		{"bad aspect", []string{"-logo", "fox", "-animate", "spin", "-aspect", "4:3"}, "invalid aspect ratio"},
		{"bad upload", []string{"-upload", "notes.txt", "-animate", "spin"}, "unsupported image type"},
		{"extra arg", []string{"-logo", "fox", "-animate", "spin", "extra"}, "unexpected argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := parseGenerateArgs(tt.args, &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00", formatElapsed(0))
	assert.Equal(t, "0:09", formatElapsed(9*time.Second))
	assert.Equal(t, "2:05", formatElapsed(125*time.Second+300*time.Millisecond))
}

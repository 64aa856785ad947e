// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package logpipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorSeedMissingFileStartsAtZero(t *testing.T) {
	c := Cursor{Path: filepath.Join(t.TempDir(), "missing.log")}
	require.NoError(t, c.Seed())
	require.Zero(t, c.Position)
}

func TestCursorSeedExistingFileStartsAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o644))

	c := Cursor{Path: path}
	require.NoError(t, c.Seed())
	require.EqualValues(t, 18, c.Position)
}

func TestCursorResetIfTruncated(t *testing.T) {
	c := Cursor{Position: 100}
	require.True(t, c.ResetIfTruncated(10))
	require.Zero(t, c.Position)

	c.Position = 100
	require.False(t, c.ResetIfTruncated(200))
	require.EqualValues(t, 100, c.Position)
}

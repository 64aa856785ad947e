// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logpipeline tails the dedicated-server's append-only console log,
// parses lines into typed events, and fans them out to subscribers over an
// in-process bus.
package logpipeline

import "os"

// Cursor tracks how far a growing log file has been consumed.
// Invariant I5: Position never exceeds the file's current size; if the
// file shrinks below Position, the cursor resets to 0 (truncation
// recovery).
type Cursor struct {
	Path     string
	Position int64
}

// Seed sets Position to the file's current length, or 0 if it does not
// exist yet (§4.C4 Tailing algorithm step 2).
func (c *Cursor) Seed() error {
	info, err := os.Stat(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Position = 0
			return nil
		}
		return err
	}
	c.Position = info.Size()
	return nil
}

// ResetIfTruncated zeroes Position when size has shrunk below it,
// reporting whether a reset occurred.
func (c *Cursor) ResetIfTruncated(size int64) bool {
	if size < c.Position {
		c.Position = 0
		return true
	}
	return false
}

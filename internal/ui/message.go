package ui

import (
	"github.com/desertthunder/placelist/internal/tasks"
)

// snapshotMsg carries the coordinator state after a change.
type snapshotMsg tasks.Snapshot

// buildProgressMsg is a progress event from a running playlist build.
type buildProgressMsg tasks.ProgressUpdate

// buildDoneMsg ends a playlist build.
type buildDoneMsg tasks.BuildResult

package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// Process exit codes.
const (
	exitFailure           = 1
	exitSnapshotCorrupted = 2
	exitNoZones           = 3
	exitNoPoIs            = 4
	exitResourceExhausted = 5
	exitDegenerateGrid    = 6
)

// exitCode maps a run error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case eris.Is(err, grid.ErrSnapshotCorrupted):
		return exitSnapshotCorrupted
	case eris.Is(err, grid.ErrNoZonesInAoI):
		return exitNoZones
	case eris.Is(err, grid.ErrNoPoisInAoI):
		return exitNoPoIs
	case eris.Is(err, grid.ErrResourceExhausted):
		return exitResourceExhausted
	case eris.Is(err, grid.ErrDegenerateGrid):
		return exitDegenerateGrid
	default:
		return exitFailure
	}
}

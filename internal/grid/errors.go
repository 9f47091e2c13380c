package grid

import "github.com/rotisserie/eris"

// Terminal run conditions. Each one aborts the run that hit it.
var (
	// ErrDegenerateGrid means the bbox is too small for the zone size.
	ErrDegenerateGrid = eris.New("grid: degenerate grid")
	// ErrNoZonesInAoI means no zone center lies inside the AoI polygons.
	ErrNoZonesInAoI = eris.New("grid: no zones inside the AoI")
	// ErrNoPoisInAoI means no PoI lies inside the AoI polygons.
	ErrNoPoisInAoI = eris.New("grid: no PoIs inside the AoI")
	// ErrSnapshotCorrupted means a cached zone snapshot could not be used.
	ErrSnapshotCorrupted = eris.New("grid: snapshot corrupted")
	// ErrResourceExhausted means the zone array does not fit the memory ceiling.
	ErrResourceExhausted = eris.New("grid: memory limit reached")
)

// Package trace records periodic snapshots of a running replicate.
// It has no dependencies on sim/ and stores pure data types.
package trace

// Snapshot captures the observable state of one replicate at one simulated time.
type Snapshot struct {
	Time          float64 // simulated time of the snapshot
	Population    int     // individuals across all compartments
	MaxPopulation int     // thickness × carrying capacity
	Thickness     int     // chain length
	BiofilmEdge   int     // deepest biofilm-region index
}

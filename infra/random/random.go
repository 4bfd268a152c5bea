// Package random creates the single pseudo-random source of a simulation run.
// Every component that draws random numbers receives this instance; none
// creates its own.
package random

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// NewSeeded returns a generator for seed. A zero seed picks one from the
// clock and logs it so the run can be replayed. The chosen seed is returned.
func NewSeeded(seed int64, log *zap.SugaredLogger) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
		if log != nil {
			log.Infow("using time-based seed", "seed", seed)
		}
	}
	return rand.New(rand.NewSource(seed)), seed
}

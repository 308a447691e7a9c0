package vm

import "github.com/ethereum/go-ethereum/metrics"

var (
	stepCounter         = metrics.NewRegisteredCounter("vm/step", nil)
	exitErrCounter      = metrics.NewRegisteredCounter("vm/exit/err", nil)
	requireMeter        = metrics.NewRegisteredMeter("vm/require", nil)
	precompiledCounter  = metrics.NewRegisteredCounter("vm/precompiled", nil)
	analysisHitCounter  = metrics.NewRegisteredCounter("vm/analysis/hit", nil)
	analysisMissCounter = metrics.NewRegisteredCounter("vm/analysis/miss", nil)
)

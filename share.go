//----------------------------------------------------------------------------------------
// FMSA: share.go
// Helpers shared across the package: memory reporting for long index builds
// and alignment runs.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"log"
	"math"
	"runtime"
)

var mem_stats = new(runtime.MemStats)

// PrintMemStats logs a one-line memory snapshot tagged with mesg.
func PrintMemStats(mesg string) {
	runtime.ReadMemStats(mem_stats)
	log.Printf(mesg+"\t%d\t%d\t%d\t%d\t%d\t%.2f",
		mem_stats.Alloc, mem_stats.TotalAlloc, mem_stats.Sys, mem_stats.HeapAlloc, mem_stats.HeapSys,
		float64(mem_stats.Sys)/(math.Pow(1024, 3)))
}

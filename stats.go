package main

import (
	"log"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsAddr = "localhost:12600"

// launchStats serves runtime charts (goroutines, heap, GC pauses) on
// statsAddr, for watching the cost of the scheduler modes.
func launchStats() {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsAddr))
		mgr := statsview.New()
		mgr.Start()
	}()
	log.Printf("stats server available at http://%s/debug/statsview", statsAddr)
}

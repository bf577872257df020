/*
Package monitoring provides Prometheus metrics for the download server.

# Overview

Tracks catalog lookups, file transfers, install attempts, batch run
lifecycle, and the HTTP surface serving them. Every collector lives in
its own registry, so multiple servers in one process never collide.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record domain events
	metrics.RecordResolution(true, 4)
	metrics.RecordDownload(true, 1<<20)

# Metrics Endpoint

Expose the collector's own registry:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidesmith_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slidesmith_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SavesTotal counts auto-save attempts by outcome: created, updated,
	// skipped (unchanged signature), limit, error.
	SavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidesmith_autosave_total",
		Help: "Auto-save attempts by outcome.",
	}, []string{"outcome"})

	// GenerationsTotal counts model calls by operation and result.
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidesmith_generations_total",
		Help: "Model requests by operation (slides, refine, image) and result.",
	}, []string{"operation", "result"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slidesmith_generation_duration_seconds",
		Help:    "Model request latency by operation.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"operation"})

	// PublicViewsTotal counts public carousel views by device class.
	PublicViewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidesmith_public_views_total",
		Help: "Public carousel views by device class.",
	}, []string{"device"})

	// ActiveEditorSessions is the number of live auto-save coordinators.
	ActiveEditorSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slidesmith_editor_sessions",
		Help: "Editor sessions with a live auto-save coordinator.",
	})
)

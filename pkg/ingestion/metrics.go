// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	// Walk
	filesWalked  prometheus.Counter
	filesSkipped *prometheus.CounterVec // reason

	// Extraction
	filesExtracted      *prometheus.CounterVec // language
	fileFailures        *prometheus.CounterVec // reason
	entitiesExtracted   *prometheus.CounterVec // language, kind
	declarationsSkipped prometheus.Counter

	// Durations
	extractDuration *prometheus.HistogramVec // language
	runDuration     prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.filesWalked = prometheus.NewCounter(prometheus.CounterOpts{Name: "coderag_ing_files_walked_total", Help: "Files admitted by the walker"})
		m.filesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "coderag_ing_files_skipped_total", Help: "Files and directories skipped during the walk"}, []string{"reason"})

		m.filesExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "coderag_ing_files_extracted_total", Help: "Files extracted successfully"}, []string{"language"})
		m.fileFailures = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "coderag_ing_file_failures_total", Help: "Files recorded as diagnostics"}, []string{"reason"})
		m.entitiesExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "coderag_ing_entities_total", Help: "Entities extracted"}, []string{"language", "kind"})
		m.declarationsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "coderag_ing_declarations_skipped_total", Help: "Declarations skipped for lack of a name"})

		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.extractDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "coderag_ing_extract_seconds", Help: "Per-file extraction time", Buckets: buckets}, []string{"language"})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "coderag_ing_run_seconds", Help: "Total pipeline run time", Buckets: buckets})

		prometheus.MustRegister(
			m.filesWalked, m.filesSkipped,
			m.filesExtracted, m.fileFailures, m.entitiesExtracted, m.declarationsSkipped,
			m.extractDuration, m.runDuration,
		)
	})
}

// record helpers - used by pipeline for metrics tracking
func recordWalk(stats *WalkStats) {
	ingMetrics.init()
	ingMetrics.filesWalked.Add(float64(stats.Candidates))
	for reason, n := range stats.SkipReasons {
		ingMetrics.filesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

func recordUnsupported() {
	ingMetrics.init()
	ingMetrics.filesSkipped.WithLabelValues(SkipUnsupported).Inc()
}

func recordExtraction(language string, ex *Extraction, d time.Duration) {
	ingMetrics.init()
	ingMetrics.filesExtracted.WithLabelValues(language).Inc()
	ingMetrics.extractDuration.WithLabelValues(language).Observe(d.Seconds())
	for _, e := range ex.Entities {
		ingMetrics.entitiesExtracted.WithLabelValues(language, string(e.Kind)).Inc()
	}
	ingMetrics.declarationsSkipped.Add(float64(ex.SkippedDeclarations))
}

func recordFailure(reason DiagnosticReason) {
	ingMetrics.init()
	ingMetrics.fileFailures.WithLabelValues(string(reason)).Inc()
}

func recordRun(d time.Duration) {
	ingMetrics.init()
	ingMetrics.runDuration.Observe(d.Seconds())
}

package obs

import (
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultFormat  = "format_error"
	ResultIllegal = "illegal_input"
	ResultEmpty   = "empty"
)

var (
	initOnce sync.Once

	descriptorParseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hublink_descriptor_parse_total",
			Help: "Connection descriptors processed, by entry point and result.",
		},
		[]string{"entry", "result"},
	)

	metadataExtractTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hublink_twin_metadata_extract_total",
			Help: "Twin metadata extractions, by result.",
		},
		[]string{"result"},
	)
)

// Init registers the collectors in the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(descriptorParseTotal, metadataExtractTotal)
	})
}

// ObserveParse counts one descriptor build through entry ("parse", "new").
func ObserveParse(entry, result string) {
	descriptorParseTotal.WithLabelValues(entry, result).Inc()
}

// ObserveExtract counts one metadata extraction.
func ObserveExtract(result string) {
	metadataExtractTotal.WithLabelValues(result).Inc()
}

// WriteMetrics dumps the default registry in the text exposition format.
func WriteMetrics(w io.Writer) error {
	return writeGathered(w, prometheus.DefaultGatherer)
}

func writeGathered(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

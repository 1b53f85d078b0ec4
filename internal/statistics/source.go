package statistics

import (
	"time"

	"github.com/markusressel/fancontrol/internal/sources"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemSource = "source"

type SourceCollector struct {
	sources []*sources.TrackedSource

	temp  *prometheus.Desc
	ok    *prometheus.Desc
	stale *prometheus.Desc
	age   *prometheus.Desc
}

func NewSourceCollector(tracked []*sources.TrackedSource) *SourceCollector {
	return &SourceCollector{
		sources: tracked,
		temp: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSource, "temp_milli_celsius"),
			"Last good temperature of the source in milli-Celsius",
			[]string{"id"}, nil,
		),
		ok: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSource, "ok"),
			"Whether the last poll of the source succeeded",
			[]string{"id"}, nil,
		),
		stale: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSource, "stale"),
			"Whether the last good sample of the source is older than its TTL",
			[]string{"id"}, nil,
		),
		age: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSource, "age_seconds"),
			"Age of the last good sample of the source",
			[]string{"id"}, nil,
		),
	}
}

func (collector *SourceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.temp
	ch <- collector.ok
	ch <- collector.stale
	ch <- collector.age
}

// Collect implements required collect function for all prometheus collectors
func (collector *SourceCollector) Collect(ch chan<- prometheus.Metric) {
	now := time.Now()
	for _, tracked := range collector.sources {
		id := tracked.GetId()
		snapshot := tracked.Snapshot()
		ttl := tracked.GetConfig().TTLSec

		ch <- prometheus.MustNewConstMetric(collector.ok, prometheus.GaugeValue, boolToGauge(snapshot.LastOK), id)

		if !snapshot.HasGood {
			continue
		}

		ageSec := now.Sub(snapshot.GoodAt).Seconds()
		ch <- prometheus.MustNewConstMetric(collector.temp, prometheus.GaugeValue, float64(snapshot.GoodTempMilliC), id)
		ch <- prometheus.MustNewConstMetric(collector.age, prometheus.GaugeValue, ageSec, id)
		ch <- prometheus.MustNewConstMetric(collector.stale, prometheus.GaugeValue, boolToGauge(ageSec > float64(ttl)), id)
	}
}

func boolToGauge(value bool) float64 {
	if value {
		return 1
	}
	return 0
}

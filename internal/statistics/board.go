package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemBoard = "board"

// StatusSample is the slice of the runtime status relevant for metrics.
type StatusSample struct {
	PwmCurrent int
	PwmTarget  int
	PwmApplied int

	AnyValid   bool
	AnyTimeout bool
	Critical   bool
}

// BoardCollector exports the actuator and safety state of the control loop.
// The status getter returns nil until the first tick completed.
type BoardCollector struct {
	status func() *StatusSample

	pwmCurrent *prometheus.Desc
	pwmTarget  *prometheus.Desc
	pwmApplied *prometheus.Desc
	anyValid   *prometheus.Desc
	anyTimeout *prometheus.Desc
	critical   *prometheus.Desc
}

func NewBoardCollector(status func() *StatusSample) *BoardCollector {
	return &BoardCollector{
		status: status,
		pwmCurrent: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemBoard, "pwm_current"),
			"PWM register value read back from hardware",
			nil, nil,
		),
		pwmTarget: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemBoard, "pwm_target"),
			"PWM target computed by the demand policy",
			nil, nil,
		),
		pwmApplied: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemBoard, "pwm_applied"),
			"PWM value applied after ramping",
			nil, nil,
		),
		anyValid: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemBoard, "any_valid"),
			"Whether at least one source contributed a usable sample",
			nil, nil,
		),
		anyTimeout: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemBoard, "any_timeout"),
			"Whether at least one source exceeded its TTL",
			nil, nil,
		),
		critical: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemBoard, "critical"),
			"Whether any source is at or above its critical temperature",
			nil, nil,
		),
	}
}

func (collector *BoardCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.pwmCurrent
	ch <- collector.pwmTarget
	ch <- collector.pwmApplied
	ch <- collector.anyValid
	ch <- collector.anyTimeout
	ch <- collector.critical
}

// Collect implements required collect function for all prometheus collectors
func (collector *BoardCollector) Collect(ch chan<- prometheus.Metric) {
	sample := collector.status()
	if sample == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(collector.pwmCurrent, prometheus.GaugeValue, float64(sample.PwmCurrent))
	ch <- prometheus.MustNewConstMetric(collector.pwmTarget, prometheus.GaugeValue, float64(sample.PwmTarget))
	ch <- prometheus.MustNewConstMetric(collector.pwmApplied, prometheus.GaugeValue, float64(sample.PwmApplied))
	ch <- prometheus.MustNewConstMetric(collector.anyValid, prometheus.GaugeValue, boolToGauge(sample.AnyValid))
	ch <- prometheus.MustNewConstMetric(collector.anyTimeout, prometheus.GaugeValue, boolToGauge(sample.AnyTimeout))
	ch <- prometheus.MustNewConstMetric(collector.critical, prometheus.GaugeValue, boolToGauge(sample.Critical))
}

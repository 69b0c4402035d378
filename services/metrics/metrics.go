// Package metrics exports sensor, hazard and actuator state to Prometheus.
// A nil *Collectors is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dusterilizer-go/errcode"
	"dusterilizer-go/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dusterilizer"

type Collectors struct {
	reg *prometheus.Registry

	sensorStatus *prometheus.GaugeVec
	sensorFaults *prometheus.CounterVec
	reading      *prometheus.GaugeVec
	hazard       *prometheus.GaugeVec
	actuator     prometheus.Gauge
	published    *prometheus.CounterVec
	renders      *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Collectors {
	c := &Collectors{
		reg: prometheus.NewRegistry(),
		sensorStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_status",
			Help:      "Latched sensor status (1 ok, 0 error).",
		}, []string{"sensor"}),
		sensorFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_faults_total",
			Help:      "Sensor faults by code.",
		}, []string{"sensor", "code"}),
		reading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading",
			Help:      "Last reading forwarded by a sensor task.",
		}, []string{"sensor", "field"}),
		hazard: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazard_ratio",
			Help:      "Reading over threshold; 1.0 means exceeded.",
		}, []string{"signal"}),
		actuator: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_on",
			Help:      "Actuator output level.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "MQTT publishes by topic and result.",
		}, []string{"topic", "result"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_renders_total",
			Help:      "Display messages rendered, by mode.",
		}, []string{"mode"}),
	}
	c.reg.MustRegister(
		c.sensorStatus,
		c.sensorFaults,
		c.reading,
		c.hazard,
		c.actuator,
		c.published,
		c.renders,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collectors) Registry() *prometheus.Registry { return c.reg }

func (c *Collectors) SensorStatus(sensor types.SensorID, s types.Status) {
	if c == nil {
		return
	}
	v := 0.0
	if s.OK() {
		v = 1
	}
	c.sensorStatus.WithLabelValues(string(sensor)).Set(v)
}

func (c *Collectors) SensorFault(sensor types.SensorID, code errcode.Code) {
	if c == nil || code == errcode.OK {
		return
	}
	c.sensorFaults.WithLabelValues(string(sensor), string(code)).Inc()
}

func (c *Collectors) Particulate(r types.ParticulateReading) {
	if c == nil {
		return
	}
	s := string(types.SensorSPS30)
	for _, f := range r.Fields() {
		c.reading.WithLabelValues(s, f.Name).Set(float64(f.Value))
	}
}

func (c *Collectors) Climate(r types.ClimateReading) {
	if c == nil {
		return
	}
	c.reading.WithLabelValues(string(types.SensorSHT31), r.Quantity.String()).Set(r.Value)
}

func (c *Collectors) Gas(r types.GasReading) {
	if c == nil {
		return
	}
	s := string(types.SensorSGP30)
	c.reading.WithLabelValues(s, "co2").Set(float64(r.CO2eq))
	c.reading.WithLabelValues(s, "voc").Set(float64(r.TVOC))
}

func (c *Collectors) Hazard(sig types.ControlSignal) {
	if c == nil {
		return
	}
	c.hazard.WithLabelValues("pm10").Set(sig.PM10)
	c.hazard.WithLabelValues("co2").Set(sig.CO2)
	c.hazard.WithLabelValues("voc").Set(sig.VOC)
	c.hazard.WithLabelValues("display").Set(sig.DisplayPercent())
}

func (c *Collectors) Actuator(on bool) {
	if c == nil {
		return
	}
	if on {
		c.actuator.Set(1)
	} else {
		c.actuator.Set(0)
	}
}

func (c *Collectors) Published(topic string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.published.WithLabelValues(topic, result).Inc()
}

func (c *Collectors) Rendered(mode string) {
	if c == nil {
		return
	}
	c.renders.WithLabelValues(mode).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve runs the /metrics endpoint on addr until ctx is cancelled.
func (c *Collectors) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"dusterilizer-go/errcode"
	"dusterilizer-go/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorsIsNoop(t *testing.T) {
	var c *Collectors
	c.SensorStatus(types.SensorSPS30, types.StatusOK())
	c.SensorFault(types.SensorSPS30, errcode.BusFault)
	c.Particulate(types.ParticulateReading{})
	c.Hazard(types.ControlSignal{})
	c.Actuator(true)
	c.Published("pm", nil)
	c.Rendered("pulse")
}

func TestCollectors(t *testing.T) {
	c := New()

	c.SensorStatus(types.SensorSHT31, types.StatusError(errcode.RangeFault, "humidity out of range"))
	c.SensorFault(types.SensorSHT31, errcode.RangeFault)
	c.SensorFault(types.SensorSHT31, errcode.RangeFault)
	c.SensorFault(types.SensorSHT31, errcode.OK)
	c.Particulate(types.ParticulateReading{PM10Mass: 42})
	c.Hazard(types.ControlSignal{PM10: 1.2})
	c.Actuator(true)
	c.Published("pm", nil)
	c.Published("pm", errors.New("timeout"))

	assert.Equal(t, 0.0, testutil.ToFloat64(c.sensorStatus.WithLabelValues("sht31")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.sensorFaults.WithLabelValues("sht31", "range_fault")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.reading.WithLabelValues("sps30", "pm10_mass")))
	assert.Equal(t, 1.2, testutil.ToFloat64(c.hazard.WithLabelValues("display")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.actuator))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.published.WithLabelValues("pm", "error")))
}

func TestHandler(t *testing.T) {
	c := New()
	c.Rendered("bar_fill")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `dusterilizer_display_renders_total{mode="bar_fill"} 1`))
}

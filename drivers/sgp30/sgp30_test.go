package sgp30

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"dusterilizer-go/drivers/sensirion/sensiriontest"
	"dusterilizer-go/errcode"
)

func newDevice() (*Device, *sensiriontest.Bus) {
	bus := sensiriontest.NewBus()
	return New(bus, Config{Sleep: sensiriontest.NoSleep}), bus
}

func TestInit(t *testing.T) {
	d, bus := newDevice()
	if !d.Init() {
		t.Fatal("Init failed")
	}
	if got := bus.Commands(); !slices.Equal(got, []uint16{cmdInitAirQuality}) {
		t.Fatalf("commands = %04x", got)
	}

	d2, bus2 := newDevice()
	bus2.FailWrite = errors.New("nack")
	if d2.Init() {
		t.Fatal("Init must fail when the write fails")
	}
	if d2.Status().Reason != "i2c write failed" {
		t.Fatalf("status = %+v", d2.Status())
	}
}

func TestReadMeasuredValues(t *testing.T) {
	d, bus := newDevice()
	bus.Respond(cmdMeasureAirQuality, sensiriontest.Words(450, 12))
	if err := d.ReadMeasuredValues(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r := d.Reading(); r.CO2eq != 450 || r.TVOC != 12 {
		t.Fatalf("reading = %+v", r)
	}

	// TVOC zero is a valid value.
	bus.Respond(cmdMeasureAirQuality, sensiriontest.Words(500, 0))
	if err := d.ReadMeasuredValues(); err != nil || d.Reading().TVOC != 0 {
		t.Fatalf("err = %v reading = %+v", err, d.Reading())
	}
}

func TestReadMeasuredValues_CRCAndRange(t *testing.T) {
	d, bus := newDevice()
	bus.Respond(cmdMeasureAirQuality, sensiriontest.Words(450, 12))
	_ = d.ReadMeasuredValues()

	frame := sensiriontest.Words(800, 30)
	frame[5] ^= 0x80
	bus.Respond(cmdMeasureAirQuality, frame)
	if err := d.ReadMeasuredValues(); errcode.Of(err) != errcode.ChecksumFault {
		t.Fatalf("err = %v, want checksum_fault", err)
	}
	if r := d.Reading(); r.CO2eq != 800 || r.TVOC != 12 {
		t.Fatalf("reading = %+v, want co2 updated and voc retained", r)
	}

	both := sensiriontest.Words(900, 40)
	both[2] ^= 0x01
	both[5] ^= 0x01
	bus.Respond(cmdMeasureAirQuality, both)
	err := d.ReadMeasuredValues()
	if got := err.Error(); !strings.HasSuffix(got, "co2,voc retained") {
		t.Fatalf("err = %q, want every retained field listed", got)
	}

	bus.Respond(cmdMeasureAirQuality, sensiriontest.Words(399, 30))
	if err := d.ReadMeasuredValues(); errcode.Of(err) != errcode.RangeFault {
		t.Fatalf("err = %v, want range_fault", err)
	}
	if d.Status().Reason != "co2 out of range" || d.Reading().CO2eq != 399 {
		t.Fatalf("status = %+v reading = %+v", d.Status(), d.Reading())
	}
}

func TestBaselineAndSelfTest(t *testing.T) {
	d, bus := newDevice()
	bus.Respond(cmdGetBaseline, sensiriontest.Words(0x8F00, 0x9100))
	b, err := d.GetBaseline()
	if err != nil || b != (Baseline{CO2eq: 0x8F00, TVOC: 0x9100}) {
		t.Fatalf("GetBaseline = (%+v, %v)", b, err)
	}
	if err := d.SetBaseline(b); err != nil {
		t.Fatal(err)
	}
	w := bus.Writes()
	if last := w[len(w)-1]; len(last) != 8 || last[0] != 0x20 || last[1] != 0x1E {
		t.Fatalf("set baseline frame = % x", last)
	}

	bus.Respond(cmdMeasureTest, sensiriontest.Words(selfTestPass))
	if err := d.MeasureTest(); err != nil {
		t.Fatalf("MeasureTest = %v", err)
	}
	bus.Respond(cmdMeasureTest, sensiriontest.Words(0x0000))
	if err := d.MeasureTest(); !errors.Is(err, ErrSelfTest) {
		t.Fatalf("MeasureTest = %v, want ErrSelfTest", err)
	}
}

func TestSerialID(t *testing.T) {
	d, bus := newDevice()
	bus.Respond(cmdGetSerialID, sensiriontest.Words(0x0000, 0x0123, 0x4567))
	id, err := d.SerialID()
	if err != nil || id != 0x01234567 {
		t.Fatalf("SerialID = (%#x, %v)", id, err)
	}
}

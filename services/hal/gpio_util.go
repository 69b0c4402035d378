package hal

import "fmt"

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ReadDIP samples the switch bank on pins with pull-ups and returns the
// levels as a binary number, first pin most significant. Afterwards the
// lines from index 4 on are driven low.
func ReadDIP(g GPIO, pins []int) (int, error) {
	levels := make([]bool, len(pins))
	for i, p := range pins {
		in, err := g.Input(p, PullUp)
		if err != nil {
			return 0, err
		}
		levels[i], err = in.Get()
		_ = in.Close()
		if err != nil {
			return 0, err
		}
	}
	for _, p := range pins[min(4, len(pins)):] {
		out, err := g.Output(p, false)
		if err != nil {
			return 0, fmt.Errorf("drive dip pin %d low: %w", p, err)
		}
		_ = out.Close()
	}
	return DIPValue(levels), nil
}

// DIPValue folds switch levels MSB-first into an integer.
func DIPValue(levels []bool) int {
	v := 0
	for _, l := range levels {
		v = v<<1 | boolToInt(l)
	}
	return v
}

package display

import (
	"context"
	"log/slog"

	"dusterilizer-go/bus"
	"dusterilizer-go/types"
	"dusterilizer-go/x/timex"
)

// Task feeds display messages into a Controller and plays each animation
// to completion before taking the next message.
type Task struct {
	c    *Controller
	in   *bus.Queue[types.DisplayMsg]
	wait timex.Wait
	log  *slog.Logger
}

func NewTask(c *Controller, in *bus.Queue[types.DisplayMsg], wait timex.Wait) *Task {
	return &Task{c: c, in: in, wait: timex.OrSleep(wait), log: c.log.With("task", "display")}
}

// Run blanks the strips on return.
func (t *Task) Run(ctx context.Context) error {
	defer t.c.Off()
	for {
		m, err := t.in.Get(ctx)
		if err != nil {
			return nil
		}
		if !t.c.Accept(m) {
			continue
		}
		t.log.Debug("render", "topic", m.Topic(), "mode", string(t.c.Mode()))
		for {
			d, ok := t.c.Step()
			if !ok {
				break
			}
			if d > 0 && !t.wait(ctx, d) {
				return nil
			}
		}
	}
}

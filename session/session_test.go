package session

import (
	"math/rand"
	"testing"
	"time"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	return NewController(rand.New(rand.NewSource(7)))
}

func allCells(width, height int) []Cell {
	cells := make([]Cell, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cells = append(cells, Cell{X: x, Y: y})
		}
	}
	return cells
}

func TestS5DaemonMetrics(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 10, Height: 10, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Paint(allCells(10, 10), 0.0); err != nil {
		t.Fatalf("Paint clear: %v", err)
	}
	frame, err := c.Paint([]Cell{{0, 0}, {1, 0}, {0, 1}}, 1.0)
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}

	s := frame.Stats
	if s.ActiveCells != 3 {
		t.Errorf("ActiveCells = %d, want 3", s.ActiveCells)
	}
	if s.DaemonCount != 1 {
		t.Errorf("DaemonCount = %d, want 1", s.DaemonCount)
	}
	if s.AvgDaemonSize != 3.0 {
		t.Errorf("AvgDaemonSize = %v, want 3.0", s.AvgDaemonSize)
	}
	if s.NoiseCells != 0 {
		t.Errorf("NoiseCells = %d, want 0", s.NoiseCells)
	}
	if diff := s.Exclusion - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Exclusion = %v, want ~1.0", s.Exclusion)
	}
}

func TestS6NoiseVsDaemon(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 10, Height: 10, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Paint(allCells(10, 10), 0.0); err != nil {
		t.Fatalf("Paint clear: %v", err)
	}
	frame, err := c.Paint([]Cell{{0, 0}, {9, 9}}, 1.0)
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}

	s := frame.Stats
	if s.ActiveCells != 2 {
		t.Errorf("ActiveCells = %d, want 2", s.ActiveCells)
	}
	if s.DaemonCount != 0 {
		t.Errorf("DaemonCount = %d, want 0", s.DaemonCount)
	}
	if s.NoiseCells != 2 {
		t.Errorf("NoiseCells = %d, want 2", s.NoiseCells)
	}
}

func TestClickRequiresActiveSession(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Click(0, 0); err == nil {
		t.Fatalf("Click before Start: got nil error, want StateError")
	} else if _, ok := err.(*StateError); !ok {
		t.Errorf("Click before Start: err = %T, want *StateError", err)
	}
}

func TestClickTogglesCell(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 5, Height: 5, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Paint(allCells(5, 5), 0.0); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	frame, err := c.Click(2, 2)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	if frame.Grid[2][2] != 1 {
		t.Fatalf("after click on 0: Grid[2][2] = %d, want 1", frame.Grid[2][2])
	}
	frame, err = c.Click(2, 2)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	if frame.Grid[2][2] != 0 {
		t.Fatalf("after click on 1: Grid[2][2] = %d, want 0", frame.Grid[2][2])
	}
}

func TestPaintOutOfBoundsIsNoOp(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 5, Height: 5, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Paint(allCells(5, 5), 0.0); err != nil {
		t.Fatalf("Paint clear: %v", err)
	}
	frame, err := c.Paint([]Cell{{-1, -1}, {100, 100}, {1, 1}}, 1.0)
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if frame.Grid[1][1] != 1 {
		t.Errorf("in-bounds cell not painted: Grid[1][1] = %d, want 1", frame.Grid[1][1])
	}
	if frame.Stats.ActiveCells != 1 {
		t.Errorf("ActiveCells = %d, want 1 (out-of-bounds cells ignored)", frame.Stats.ActiveCells)
	}
}

func TestResetMatchesFreshStartWithSameSeed(t *testing.T) {
	c1 := NewController(rand.New(rand.NewSource(99)))
	cfg := Config{Width: 9, Height: 5, Mask: "wolfram_110"}
	frameA, err := c1.Start(cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	frameA, err = c1.Step(3)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	frameA, err = c1.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}

	c2 := NewController(rand.New(rand.NewSource(99)))
	frameB, err := c2.Start(cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if frameA.Generation != frameB.Generation {
		t.Errorf("Generation after reset = %d, want %d", frameA.Generation, frameB.Generation)
	}
	for y := range frameA.Grid {
		for x := range frameA.Grid[y] {
			if frameA.Grid[y][x] != frameB.Grid[y][x] {
				t.Fatalf("grid mismatch at (%d,%d): reset=%d fresh-start=%d", x, y, frameA.Grid[y][x], frameB.Grid[y][x])
			}
		}
	}
}

func TestReconnectSameMaskTypePreservesValues(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 10, Height: 10, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Paint(allCells(10, 10), 0.0); err != nil {
		t.Fatalf("Paint clear: %v", err)
	}
	if _, err := c.Paint([]Cell{{3, 3}}, 1.0); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	frame, err := c.Reconnect(ReconnectRequest{Mask: "wide_hat"})
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if frame.Grid[3][3] != 1 {
		t.Errorf("value not preserved across same-type reconnect: Grid[3][3] = %d, want 1", frame.Grid[3][3])
	}
}

func TestReconnectAcrossMaskTypeRestartsSession(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 9, Height: 5, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Step(2); err != nil {
		t.Fatalf("Step: %v", err)
	}

	frame, err := c.Reconnect(ReconnectRequest{Mask: "wolfram_110"})
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if frame.Generation != 0 {
		t.Errorf("Generation after cross-type reconnect = %d, want 0 (full restart)", frame.Generation)
	}
	if c.maskType != "wolfram" {
		t.Errorf("maskType after reconnect = %v, want wolfram", c.maskType)
	}
}

func TestInspectRequiresActiveSession(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Inspect(0, 0); err == nil {
		t.Fatalf("Inspect before Start: got nil error, want StateError")
	}
}

func TestPlayPauseStopsEmittingFrames(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 5, Height: 5, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	frames := make(chan Frame, 64)
	if err := c.Play(30, 1, func(f Frame, err error) {
		if err != nil {
			t.Errorf("autoplay error: %v", err)
			return
		}
		select {
		case frames <- f:
		default:
		}
	}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	c.Pause()
	countAtPause := len(frames)
	time.Sleep(80 * time.Millisecond)
	if len(frames) != countAtPause {
		t.Errorf("frames kept arriving after Pause: %d -> %d", countAtPause, len(frames))
	}
	if countAtPause == 0 {
		t.Errorf("expected at least one autoplay frame before pause")
	}
}

func TestStepReturnsPerfTiming(t *testing.T) {
	c := newTestController(t)
	if _, err := c.Start(Config{Width: 5, Height: 5, Mask: "simple"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	frame, err := c.Step(4)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if frame.Perf == nil {
		t.Fatalf("Perf is nil, want timing info")
	}
	if frame.Perf.Steps != 4 {
		t.Errorf("Perf.Steps = %d, want 4", frame.Perf.Steps)
	}
}

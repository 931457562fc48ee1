// Package session owns one live experiment: it builds and compiles a
// topology, drives the step engine, and reports frames with daemon
// metrics. One Controller serves one client; Controllers share no
// mutable state with each other.
package session

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"daemonfield/builder"
	"daemonfield/compiler"
	"daemonfield/engine"
	"daemonfield/inspector"
	"daemonfield/presets"
	"daemonfield/topology"
)

const daemonStabilityWindow = 20
const daemonThreshold = 0.5
const minDaemonSize = 3

// StateError reports an action that requires an active experiment (e.g.
// click before start).
type StateError struct {
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session: action %q requires an active experiment", e.Action)
}

// Config carries the knobs a client can set at start/reconnect time.
type Config struct {
	Width        int
	Height       int
	Mask         string
	Balance      *float64
	BalanceMode  string // "none", "weight", "synapse_count"
	Rule         int    // overrides the preset's own rule when non-zero and MaskType is wolfram
	FPS          int
	StepsPerTick int
}

// Cell is one grid coordinate, used by Paint.
type Cell struct{ X, Y int }

// Perf reports timing for a step batch.
type Perf struct {
	Steps          int
	ElapsedMs      float64
	StepsPerSecond float64
}

// Stats is the per-frame metrics block.
type Stats struct {
	ActiveCells   int
	DaemonCount   int
	AvgDaemonSize float64
	NoiseCells    int
	Exclusion     float64
	Stability     float64
	Steps         int
}

// Frame is one emitted grid snapshot with metrics and optional timing.
type Frame struct {
	Generation int
	Grid       [][]int
	Stats      Stats
	Perf       *Perf
}

// FrameSink receives autoplay frames; err is non-nil exactly once, right
// before the autoplay loop stops because of an internal failure.
type FrameSink func(Frame, error)

// Controller owns one packed network and its surrounding session state.
// Every action, and every tick of the internal autoplay loop, holds the
// same mutex, so calls from multiple goroutines are applied one at a time.
type Controller struct {
	ID uuid.UUID

	mu  sync.Mutex
	rng *rand.Rand

	cfg      Config
	maskType presets.MaskType
	topo     *topology.Topology
	eng      *engine.StepEngine
	width    int
	height   int

	generation int

	daemonHistory  []int
	lastHistoryGen int

	cancelAutoplay context.CancelFunc
}

// NewController constructs an idle controller (no active experiment
// until Start is called), tagged with a fresh session id.
func NewController(rng *rand.Rand) *Controller {
	return &Controller{
		ID:             uuid.New(),
		rng:            rng,
		lastHistoryGen: -1,
	}
}

// Start builds a fresh topology from cfg, compiles it, seeds initial
// values (Wolfram: all zero plus a single bottom-row center cell at 1;
// otherwise uniform random per cell), and emits one frame.
func (c *Controller) Start(cfg Config) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAutoplayLocked()

	topo, maskType, err := c.build(cfg)
	if err != nil {
		return Frame{}, err
	}
	packed, err := compiler.Compile(topo)
	if err != nil {
		return Frame{}, err
	}
	eng := engine.NewStepEngine(packed)

	if maskType == presets.MaskTypeWolfram {
		centerX := cfg.Width / 2
		centerIdx := (cfg.Height-1)*cfg.Width + centerX
		eng.Set(centerIdx, 1.0)
	} else {
		for i := 0; i < packed.NReal; i++ {
			eng.Set(i, c.rng.Float64())
		}
	}

	c.topo = topo
	c.eng = eng
	c.cfg = cfg
	c.maskType = maskType
	c.width = cfg.Width
	c.height = cfg.Height
	c.generation = 0
	c.daemonHistory = c.daemonHistory[:0]
	c.lastHistoryGen = -1

	return c.frameLocked(nil), nil
}

// Click toggles the cell at (x,y): if its value is below 0.5 it becomes
// 1, otherwise 0.
func (c *Controller) Click(x, y int) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng == nil {
		return Frame{}, &StateError{Action: "click"}
	}

	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return c.frameLocked(nil), nil
	}
	idx := y*c.width + x
	values := c.eng.Packed().Value
	if values[idx] < 0.5 {
		c.eng.Set(idx, 1.0)
	} else {
		c.eng.Set(idx, 0.0)
	}
	return c.frameLocked(nil), nil
}

// Paint sets every in-bounds cell in cells to value; out-of-bounds cells
// are silently ignored.
func (c *Controller) Paint(cells []Cell, value float64) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng == nil {
		return Frame{}, &StateError{Action: "paint"}
	}

	for _, cell := range cells {
		if cell.X < 0 || cell.X >= c.width || cell.Y < 0 || cell.Y >= c.height {
			continue
		}
		c.eng.Set(cell.Y*c.width+cell.X, value)
	}
	return c.frameLocked(nil), nil
}

// Step runs n ticks (n is floored to 1) and emits one frame with timing.
func (c *Controller) Step(n int) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng == nil {
		return Frame{}, &StateError{Action: "step"}
	}
	return c.stepLocked(n), nil
}

func (c *Controller) stepLocked(n int) Frame {
	if n < 1 {
		n = 1
	}
	t0 := time.Now()
	c.eng.StepN(n)
	elapsed := time.Since(t0)
	c.generation += n

	perf := &Perf{Steps: n, ElapsedMs: math.Round(elapsed.Seconds()*1000*100) / 100}
	if elapsed.Seconds() > 0 {
		perf.StepsPerSecond = math.Round(float64(n)/elapsed.Seconds()*10) / 10
	}
	return c.frameLocked(perf)
}

// Play starts autoplay: on each iteration it runs stepsPerTick ticks,
// hands the resulting frame to sink, and waits ~1/fps before the next
// iteration. Any prior autoplay is cancelled first. Play returns once
// the loop has been launched, not once it finishes.
func (c *Controller) Play(fps, stepsPerTick int, sink FrameSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng == nil {
		return &StateError{Action: "play"}
	}
	c.cancelAutoplayLocked()

	if fps < 1 {
		fps = 1
	}
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelAutoplay = cancel

	go c.autoplayLoop(ctx, fps, stepsPerTick, sink)
	return nil
}

func (c *Controller) autoplayLoop(ctx context.Context, fps, stepsPerTick int, sink FrameSink) {
	defer func() {
		if r := recover(); r != nil {
			sink(Frame{}, fmt.Errorf("session: autoplay loop panicked: %v", r))
		}
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / float64(fps)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.eng == nil {
				c.mu.Unlock()
				return
			}
			frame := c.stepLocked(stepsPerTick)
			c.mu.Unlock()
			sink(frame, nil)
		}
	}
}

// Pause cancels any running autoplay loop; the session stays usable.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelAutoplayLocked()
}

func (c *Controller) cancelAutoplayLocked() {
	if c.cancelAutoplay != nil {
		c.cancelAutoplay()
		c.cancelAutoplay = nil
	}
}

// Reset cancels autoplay and re-runs Start with the cached config.
func (c *Controller) Reset() (Frame, error) {
	c.mu.Lock()
	if c.eng == nil {
		c.mu.Unlock()
		return Frame{}, &StateError{Action: "reset"}
	}
	c.cancelAutoplayLocked()
	cfg := c.cfg
	c.mu.Unlock()

	return c.Start(cfg)
}

// ReconnectRequest changes mask and/or balance without necessarily
// losing cell values (see Reconnect).
type ReconnectRequest struct {
	Mask        string
	Balance     *float64
	BalanceMode string
}

// Reconnect changes mask and/or balance. If the new mask's type (Wolfram
// vs lateral-competition) differs from the current one, this performs a
// full Start with the new config. Otherwise the current value array is
// snapshotted, the topology rebuilt with the new mask/balance at the
// current grid dimensions, each neuron reseeded from the snapshot by
// index, and the packed network recompiled; daemon history is cleared.
func (c *Controller) Reconnect(req ReconnectRequest) (Frame, error) {
	c.mu.Lock()
	if c.eng == nil {
		c.mu.Unlock()
		return Frame{}, &StateError{Action: "reconnect"}
	}

	entry, ok := presets.Get(req.Mask)
	if !ok {
		c.mu.Unlock()
		return Frame{}, &topology.ValidationError{Op: "session.Reconnect", Msg: fmt.Sprintf("unknown mask preset %q", req.Mask)}
	}

	if entry.MaskType != c.maskType {
		newCfg := c.cfg
		newCfg.Mask = req.Mask
		newCfg.Balance = req.Balance
		newCfg.BalanceMode = req.BalanceMode
		c.mu.Unlock()
		return c.Start(newCfg)
	}

	snapshot := append([]float64(nil), c.eng.Packed().Value[:c.eng.Packed().NReal]...)

	newCfg := c.cfg
	newCfg.Mask = req.Mask
	newCfg.Balance = req.Balance
	newCfg.BalanceMode = req.BalanceMode

	topo, maskType, err := c.build(newCfg)
	if err != nil {
		c.mu.Unlock()
		return Frame{}, err
	}
	packed, err := compiler.Compile(topo)
	if err != nil {
		c.mu.Unlock()
		return Frame{}, err
	}
	eng := engine.NewStepEngine(packed)
	for i := 0; i < len(snapshot) && i < packed.NReal; i++ {
		eng.Set(i, snapshot[i])
	}

	c.topo = topo
	c.eng = eng
	c.cfg = newCfg
	c.maskType = maskType
	c.daemonHistory = c.daemonHistory[:0]
	c.lastHistoryGen = -1

	frame := c.frameLocked(nil)
	c.mu.Unlock()
	return frame, nil
}

// Inspect returns the effective weight map for the neuron at (x,y).
func (c *Controller) Inspect(x, y int) (*inspector.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.topo == nil {
		return nil, &StateError{Action: "inspect"}
	}
	return inspector.Inspect(c.topo, x, y, c.width, c.height)
}

// Close cancels any running autoplay loop, releasing the session's
// background goroutine.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelAutoplayLocked()
}

// build constructs the Topology for cfg: a Wolfram grid (bottom row
// input-locked, threshold 0.99, every other row synthesized from cfg's
// preset rule, toroidal wrap observable) or a lateral-competition grid
// (mask applied via ApplyMask, optional balance transform).
func (c *Controller) build(cfg Config) (*topology.Topology, presets.MaskType, error) {
	entry, ok := presets.Get(cfg.Mask)
	if !ok {
		return nil, "", &topology.ValidationError{Op: "session.build", Msg: fmt.Sprintf("unknown mask preset %q", cfg.Mask)}
	}

	if entry.MaskType == presets.MaskTypeWolfram {
		rule := entry.Rule
		if cfg.Rule != 0 {
			rule = cfg.Rule
		}
		topo, _ := builder.BuildGrid(cfg.Width, cfg.Height, []int{cfg.Height - 1}, nil, 0.99)
		for row := 0; row < cfg.Height-1; row++ {
			if err := builder.SynthesizeWolframRule(topo, rule, row, cfg.Width, cfg.Height); err != nil {
				return nil, "", err
			}
		}
		return topo, presets.MaskTypeWolfram, nil
	}

	topo, _ := builder.BuildGrid(cfg.Width, cfg.Height, nil, nil, 0.0)
	if err := builder.ApplyMask(topo, cfg.Width, cfg.Height, entry.Mask, c.rng); err != nil {
		return nil, "", err
	}
	if cfg.Balance != nil {
		switch cfg.BalanceMode {
		case "weight":
			builder.BalanceByWeight(topo.Neurons, *cfg.Balance)
		case "synapse_count":
			builder.BalanceBySynapseCount(topo.Neurons, *cfg.Balance, c.rng)
		}
	}
	return topo, presets.MaskTypeKohonen, nil
}

func (c *Controller) frameLocked(perf *Perf) Frame {
	grid := c.eng.Snapshot(c.width, c.height)
	intGrid := make([][]int, len(grid))
	for r, row := range grid {
		intRow := make([]int, len(row))
		for col, v := range row {
			intRow[col] = int(math.Round(v))
		}
		intGrid[r] = intRow
	}

	return Frame{
		Generation: c.generation,
		Grid:       intGrid,
		Stats:      c.computeStatsLocked(),
		Perf:       perf,
	}
}

func (c *Controller) computeStatsLocked() Stats {
	values := c.eng.Packed().Value[:c.width*c.height]

	active := 0
	for _, v := range values {
		if v > daemonThreshold {
			active++
		}
	}

	result := detectDaemons(values, c.width, c.height, daemonThreshold)

	avgSize := 0.0
	if len(result.sizes) > 0 {
		sum := 0
		for _, s := range result.sizes {
			sum += s
		}
		avgSize = math.Round(float64(sum)/float64(len(result.sizes))*10) / 10
	}

	exclusion := 0.0
	if len(result.daemonIndices) > 0 {
		insideSum, outsideSum := 0.0, 0.0
		outsideCount := 0
		for i, v := range values {
			if result.daemonIndices[i] {
				insideSum += v
			} else {
				outsideSum += v
				outsideCount++
			}
		}
		insideMean := insideSum / float64(len(result.daemonIndices))
		outsideMean := 0.0
		if outsideCount > 0 {
			outsideMean = outsideSum / float64(outsideCount)
		}
		exclusion = math.Round((insideMean-outsideMean)*1000) / 1000
	}

	if c.generation != c.lastHistoryGen {
		c.daemonHistory = append(c.daemonHistory, result.count)
		if len(c.daemonHistory) > daemonStabilityWindow {
			c.daemonHistory = c.daemonHistory[len(c.daemonHistory)-daemonStabilityWindow:]
		}
		c.lastHistoryGen = c.generation
	}

	return Stats{
		ActiveCells:   active,
		DaemonCount:   result.count,
		AvgDaemonSize: avgSize,
		NoiseCells:    len(result.noiseIndices),
		Exclusion:     exclusion,
		Stability:     c.stabilityLocked(),
		Steps:         c.generation,
	}
}

func (c *Controller) stabilityLocked() float64 {
	if len(c.daemonHistory) < 2 {
		return 0.0
	}

	samples := make([]float64, len(c.daemonHistory))
	for i, v := range c.daemonHistory {
		samples[i] = float64(v)
	}
	mean, std := stat.PopMeanStdDev(samples, nil)
	if mean == 0 {
		return 1.0
	}

	stability := 1.0 - std/mean
	if stability < 0 {
		stability = 0
	}
	if stability > 1 {
		stability = 1
	}
	return math.Round(stability*1000) / 1000
}

// daemonResult is the outcome of one connected-components pass.
type daemonResult struct {
	count         int
	sizes         []int
	daemonIndices map[int]bool
	noiseIndices  map[int]bool
}

// detectDaemons finds 8-connected components of cells with value >
// threshold; components of size >= minDaemonSize are daemons, smaller
// ones are noise.
func detectDaemons(values []float64, width, height int, threshold float64) daemonResult {
	n := width * height
	active := make([]bool, n)
	for i := 0; i < n && i < len(values); i++ {
		active[i] = values[i] > threshold
	}

	visited := make([]bool, n)
	result := daemonResult{
		daemonIndices: make(map[int]bool),
		noiseIndices:  make(map[int]bool),
	}

	for idx := 0; idx < n; idx++ {
		if !active[idx] || visited[idx] {
			continue
		}

		queue := []int{idx}
		visited[idx] = true
		var cluster []int

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			cluster = append(cluster, cur)

			cx, cy := cur%width, cur/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					nidx := ny*width + nx
					if active[nidx] && !visited[nidx] {
						visited[nidx] = true
						queue = append(queue, nidx)
					}
				}
			}
		}

		if len(cluster) >= minDaemonSize {
			result.sizes = append(result.sizes, len(cluster))
			for _, i := range cluster {
				result.daemonIndices[i] = true
			}
		} else {
			for _, i := range cluster {
				result.noiseIndices[i] = true
			}
		}
	}
	result.count = len(result.sizes)
	return result
}

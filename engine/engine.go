// Package engine evaluates packed networks produced by the compiler
// package. It implements the seven-step tick algorithm (gather, fuzzy
// match, segment mean, dendrite weight, competitive fuzzy-OR, threshold,
// preserve input-locked) with all scratch buffers allocated once and
// reused across ticks.
package engine

import (
	"daemonfield/common"
	"daemonfield/compiler"
)

// StepEngine evaluates ticks over one packed network. It is not
// goroutine-safe; callers that need concurrent access must serialize
// their own calls (the session package does this per-session).
type StepEngine struct {
	p *compiler.PackedNetwork

	// scratch buffers, sized once at construction and reused across ticks.
	dendSum   []float64 // len N*(D+1), trash column included then discarded
	dendCount []int     // len N*(D+1)
	newValue  []float64 // len N
}

// NewStepEngine wraps a packed network for evaluation.
func NewStepEngine(p *compiler.PackedNetwork) *StepEngine {
	return &StepEngine{
		p:         p,
		dendSum:   make([]float64, p.N*(p.D+1)),
		dendCount: make([]int, p.N*(p.D+1)),
		newValue:  make([]float64, p.N),
	}
}

// Packed returns the underlying packed network.
func (e *StepEngine) Packed() *compiler.PackedNetwork { return e.p }

// Set writes value[i] = clamp(v, 0, 1). Used for click, paint, and input
// injection; bypasses threshold logic entirely.
func (e *StepEngine) Set(i int, v float64) {
	e.p.Value[i] = common.Clamp(v, 0.0, 1.0)
}

// Snapshot returns a fresh height x width copy of value[0:width*height],
// assuming the packed network's first width*height neurons are laid out
// in row-major grid order (the Builder's contract).
func (e *StepEngine) Snapshot(width, height int) [][]float64 {
	grid := make([][]float64, height)
	p := e.p
	for y := 0; y < height; y++ {
		row := make([]float64, width)
		for x := 0; x < width; x++ {
			idx := y*width + x
			if idx < len(p.Value) {
				row[x] = p.Value[idx]
			}
		}
		grid[y] = row
	}
	return grid
}

// Step evaluates one tick in place.
func (e *StepEngine) Step() {
	p := e.p
	stride := p.D + 1

	for k := range e.dendSum {
		e.dendSum[k] = 0
		e.dendCount[k] = 0
	}

	// Steps 1-3: gather, fuzzy match, segment sum/count per dendrite
	// (including the trash column at index D).
	for i := 0; i < p.NReal; i++ {
		base := i * stride
		for j := 0; j < p.S; j++ {
			off := p.SynIndex(i, j)
			if !p.SynValid[off] {
				continue
			}
			input := p.Value[p.SynSource[off]]
			s := 1.0 - absf(p.SynWeight[off]-input)

			d := p.SynDendID[off]
			e.dendSum[base+d] += s
			e.dendCount[base+d]++
		}
	}

	for i := 0; i < p.NReal; i++ {
		if p.InputLocked[i] {
			e.newValue[i] = p.Value[i]
			continue
		}

		maxPositive := 0.0
		minNegative := 0.0
		base := i * stride
		for d := 0; d < p.D; d++ {
			dOff := p.DendIndex(i, d)
			if !p.DendValid[dOff] {
				continue
			}
			cnt := e.dendCount[base+d]
			if cnt < 1 {
				cnt = 1
			}
			mean := e.dendSum[base+d] / float64(cnt)
			val := mean * p.DendWeight[dOff]

			if val > maxPositive {
				maxPositive = val
			}
			if val < minNegative {
				minNegative = val
			}
		}

		tension := common.Clamp(maxPositive+minNegative, -1.0, 1.0)

		if tension > p.Threshold[i] {
			e.newValue[i] = 1.0
		} else {
			e.newValue[i] = 0.0
		}
	}

	copy(p.Value, e.newValue[:p.NReal])
}

// StepN runs Step k times without leaving the engine.
func (e *StepEngine) StepN(k int) {
	for n := 0; n < k; n++ {
		e.Step()
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package compiler linearizes a topology.Topology into the dense,
// flat-array "packed network" the Step Engine evaluates. It runs exactly
// once per topology change (session start or reconnection) and is pure:
// compiling the same Topology twice yields identical arrays.
package compiler

import "daemonfield/topology"

// Padding (invalid) synapse slots carry the trash dendrite id D (one past
// the last real dendrite index) in SynDendID, so segment reductions in the
// Step Engine can scatter them into a column that is discarded afterwards
// without branching.
//
// PackedNetwork is the dense representation the Compiler produces and the
// Step Engine consumes. Per-neuron rows are padded to S synapses and D
// dendrites; invalid padding entries carry SynValid=false / SynDendID=D so
// segment reductions never corrupt real dendrite data.
type PackedNetwork struct {
	N     int // total neurons, including an optional trailing ghost/zero neuron
	NReal int // neurons present in the source topology (== N unless a ghost was appended)
	S     int // max synapses per neuron row (at least 1)
	D     int // max dendrites per neuron row (at least 1)

	Value       []float64 // len N
	Threshold   []float64 // len N
	InputLocked []bool    // len N

	SynWeight     []float64 // len N*S
	SynSource     []int     // len N*S, index into Value
	SynValid      []bool    // len N*S
	SynDendWeight []float64 // len N*S, dendrite weight replicated per synapse
	SynDendID     []int     // len N*S, in [0, D]; D marks invalid padding

	DendWeight []float64 // len N*D, derived
	DendValid  []bool    // len N*D, derived: true iff >=1 valid synapse carries this dendrite id
}

// SynIndex returns the flat offset of neuron i's j-th synapse slot.
func (p *PackedNetwork) SynIndex(i, j int) int { return i*p.S + j }

// DendIndex returns the flat offset of neuron i's d-th dendrite slot.
func (p *PackedNetwork) DendIndex(i, d int) int { return i*p.D + d }

// Compile walks topo exactly once (two passes: sizing, then filling) and
// produces its packed network. If any synapse points to a neuron id
// absent from topo (a border "ghost" synapse, only reachable via the
// non-toroidal ConnectRowsNonToroidal builder path), Compile appends one
// extra zero-valued, input-locked neuron at index NReal and redirects
// those synapses there.
func Compile(topo *topology.Topology) (*PackedNetwork, error) {
	neurons := topo.Neurons
	nReal := len(neurons)

	idIndex := make(map[string]int, nReal)
	for i, n := range neurons {
		idIndex[n.ID] = i
	}

	maxSyn, maxDend := 0, 0
	for _, n := range neurons {
		total := 0
		for _, d := range n.Dendrites {
			total += len(d.Synapses)
		}
		if total > maxSyn {
			maxSyn = total
		}
		if len(n.Dendrites) > maxDend {
			maxDend = len(n.Dendrites)
		}
	}
	if maxSyn == 0 {
		maxSyn = 1
	}
	if maxDend == 0 {
		maxDend = 1
	}

	p := &PackedNetwork{
		NReal: nReal,
		S:     maxSyn,
		D:     maxDend,
	}

	size := nReal * maxSyn
	p.SynWeight = make([]float64, size)
	p.SynSource = make([]int, size)
	p.SynValid = make([]bool, size)
	p.SynDendWeight = make([]float64, size)
	p.SynDendID = make([]int, size)
	for k := range p.SynDendID {
		p.SynDendID[k] = maxDend // default: trash column, overwritten below for valid entries
	}

	p.Value = make([]float64, nReal)
	p.Threshold = make([]float64, nReal)
	p.InputLocked = make([]bool, nReal)

	hasGhost := false
	for i, n := range neurons {
		p.Value[i] = n.Value
		p.Threshold[i] = n.Threshold
		p.InputLocked[i] = n.InputLocked

		synIdx := 0
		for dIdx, d := range n.Dendrites {
			for _, s := range d.Synapses {
				off := p.SynIndex(i, synIdx)
				p.SynWeight[off] = s.Weight
				p.SynDendWeight[off] = d.Weight
				p.SynValid[off] = true
				p.SynDendID[off] = dIdx

				if srcIdx, ok := idIndex[s.SourceID]; ok {
					p.SynSource[off] = srcIdx
				} else {
					p.SynSource[off] = nReal // tentative ghost index
					hasGhost = true
				}
				synIdx++
			}
		}
	}

	if hasGhost {
		p.N = nReal + 1
		p.Value = append(p.Value, 0.0)
		p.Threshold = append(p.Threshold, 0.0)
		p.InputLocked = append(p.InputLocked, true)
	} else {
		p.N = nReal
	}

	computeDendriteArrays(p)

	return p, nil
}

// computeDendriteArrays scatters per-synapse dendrite weight/validity into
// the derived [N, D] DendWeight/DendValid arrays, using the trash column
// (index D) to safely discard invalid synapses before dropping it.
func computeDendriteArrays(p *PackedNetwork) {
	p.DendWeight = make([]float64, p.N*p.D)
	p.DendValid = make([]bool, p.N*p.D)

	counts := make([]int, p.N*p.D)

	for i := 0; i < p.NReal; i++ {
		for j := 0; j < p.S; j++ {
			off := p.SynIndex(i, j)
			if !p.SynValid[off] {
				continue
			}
			dID := p.SynDendID[off]
			if dID >= p.D { // trash column, discarded
				continue
			}
			dOff := p.DendIndex(i, dID)
			p.DendWeight[dOff] = p.SynDendWeight[off]
			counts[dOff]++
		}
	}

	for k, c := range counts {
		if c > 0 {
			p.DendValid[k] = true
		}
	}
}

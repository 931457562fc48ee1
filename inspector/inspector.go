// Package inspector answers "what feeds this neuron" queries against a
// topology.Topology: the effective weight contributed by every grid cell
// that connects to an inspected neuron, aggregated across dendrites and
// repeated sources.
package inspector

import (
	"daemonfield/common"
	"daemonfield/topology"
)

// InspectedSentinel marks the inspected cell itself in the returned grid.
const InspectedSentinel = 999.0

// Result is the effective weight map for one inspected neuron, plus its
// dendrite/synapse counts.
type Result struct {
	X, Y           int
	WeightGrid     [][]*float64 // height x width; nil means unconnected
	TotalDendrites int
	TotalSynapses  int
}

// Inspect computes the effective weight map for the neuron at (x, y):
// cell (c, r) holds the clamped sum, over every dendrite of the inspected
// neuron, of synapse_weight*dendrite_weight for every synapse whose
// source is (c, r). Repeated sources across dendrites are aggregated
// before clamping, not double-counted. The inspected cell itself carries
// the sentinel InspectedSentinel regardless of any self-connection.
func Inspect(topo *topology.Topology, x, y, width, height int) (*Result, error) {
	n, err := topo.GetNeuronByCoord(x, y)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	totalSynapses := 0
	for _, d := range n.Dendrites {
		for _, s := range d.Synapses {
			sums[s.SourceID] += s.Weight * d.Weight
			totalSynapses++
		}
	}

	grid := make([][]*float64, height)
	for r := 0; r < height; r++ {
		grid[r] = make([]*float64, width)
		for c := 0; c < width; c++ {
			if r == y && c == x {
				v := InspectedSentinel
				grid[r][c] = &v
				continue
			}
			id := topology.CoordID(c, r)
			if sum, ok := sums[id]; ok {
				v := common.Clamp(sum, -1.0, 1.0)
				grid[r][c] = &v
			}
		}
	}

	return &Result{
		X:              x,
		Y:              y,
		WeightGrid:     grid,
		TotalDendrites: len(n.Dendrites),
		TotalSynapses:  totalSynapses,
	}, nil
}

// Package builder constructs Topologies (and their Regions) from
// configuration: grid dimensions, a mask or a Wolfram rule, and optional
// excitation/inhibition balance transforms. All entry points produce
// neurons and synapses in a deterministic, row-major order so that, for a
// fixed random seed, outputs are reproducible.
package builder

import (
	"daemonfield/topology"
)

// RegionNames are the three book-keeping regions every grid build produces.
const (
	RegionInput    = "input"
	RegionOutput   = "output"
	RegionInternal = "internal"
)

// wrap resolves a single axis offset toroidally: (v + d) mod size, always
// non-negative.
func wrap(v, d, size int) int {
	r := (v + d) % size
	if r < 0 {
		r += size
	}
	return r
}

// BuildGrid creates width*height neurons in row-major order. A neuron on a
// row listed in inputRows is input-locked with no dendrites; a neuron on a
// row listed in outputRows is a regular neuron recorded in the output
// region (purely for book-keeping, identical in evaluation to an internal
// neuron); all others are internal regular neurons. Every neuron uses the
// given threshold (input-locked neurons ignore it).
func BuildGrid(width, height int, inputRows, outputRows []int, threshold float64) (*topology.Topology, map[string]*topology.Region) {
	inputSet := toSet(inputRows)
	outputSet := toSet(outputRows)

	topo := topology.New()
	regions := map[string]*topology.Region{
		RegionInput:    topology.NewRegion(RegionInput),
		RegionOutput:   topology.NewRegion(RegionOutput),
		RegionInternal: topology.NewRegion(RegionInternal),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			id := topology.CoordID(x, y)

			var n *topology.Neuron
			switch {
			case inputSet[y]:
				n = topology.NewInputLockedNeuron(id)
				regions[RegionInput].Add(n)
			case outputSet[y]:
				n = topology.NewNeuron(id, threshold)
				regions[RegionOutput].Add(n)
			default:
				n = topology.NewNeuron(id, threshold)
				regions[RegionInternal].Add(n)
			}

			topo.AddNeuron(n)
		}
	}

	return topo, regions
}

func toSet(rows []int) map[int]bool {
	s := make(map[int]bool, len(rows))
	for _, r := range rows {
		s[r] = true
	}
	return s
}

package builder

import "daemonfield/topology"

// ConnectRowsNonToroidal wires one destination row to a relative mask of
// source offsets, WITHOUT wrapping at the grid border: an offset whose
// column falls outside [0, width), or whose row has no neuron in the
// topology, is instead routed to a synthetic, permanently-zero "ghost"
// source id that does not exist in the topology.
// The Compiler recognizes such dangling synapse sources and redirects
// them to its trailing zero-valued input-locked neuron (see compiler
// package). This is the pre-toroidal construction path described in
// spec.md §9 ("the older non-toroidal construction path"); the current
// grid/mask/Wolfram builders are toroidal and do not use it, but it
// remains available for callers that want the legacy semantics.
//
// weightRules is a list of dendrites, each a list of synapse weights
// matching mask position-for-position (shorter weight lists pad remaining
// synapses with weight 0).
func ConnectRowsNonToroidal(topo *topology.Topology, destRow, width int, mask []Offset, weightRules [][]float64, dendriteWeight float64) error {
	for x := 0; x < width; x++ {
		dst, err := topo.GetNeuronByCoord(x, destRow)
		if err != nil {
			return err
		}

		for _, weights := range weightRules {
			synapses := make([]topology.Synapse, len(mask))
			for i, off := range mask {
				nx := x + off.DX
				ny := destRow + off.DY

				var w float64
				if i < len(weights) {
					w = weights[i]
				}

				id := topology.CoordID(nx, ny)
				if nx < 0 || nx >= width {
					id = ghostID(nx, ny)
				} else if _, err := topo.GetNeuronByCoord(nx, ny); err != nil {
					id = ghostID(nx, ny)
				}

				synapses[i] = topology.Synapse{SourceID: id, Weight: w}
			}

			if err := dst.AddDendrite(dendriteWeight, synapses); err != nil {
				return err
			}
		}
	}
	return nil
}

func ghostID(x, y int) string {
	return "_border_" + topology.CoordID(x, y)
}

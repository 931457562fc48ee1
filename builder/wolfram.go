package builder

import "daemonfield/topology"

// wolframOffsets are the three toroidally-wrapped sources a Wolfram-rule
// dendrite reads from the row below: left, center, right.
var wolframOffsets = []Offset{{-1, 1}, {0, 1}, {1, 1}}

// SynthesizeWolframRule configures targetRow's dendrites according to an
// 8-bit elementary cellular automaton rule. For every 3-bit pattern p in
// 0..7 with bit p set in rule, every cell of targetRow gets one dendrite
// with three synapses reading the three cells of the row below (after
// toroidal wrap), weighted to encode the pattern (MSB = left neighbor).
// Dendrite weight is always +1; with a cell threshold of 0.99 a dendrite
// only fires on an exact 3-of-3 match.
func SynthesizeWolframRule(topo *topology.Topology, rule int, targetRow, width, height int) error {
	var patterns [][3]float64
	for p := 0; p < 8; p++ {
		if rule&(1<<uint(p)) == 0 {
			continue
		}
		left := float64((p >> 2) & 1)
		center := float64((p >> 1) & 1)
		right := float64(p & 1)
		patterns = append(patterns, [3]float64{left, center, right})
	}

	for x := 0; x < width; x++ {
		dst, err := topo.GetNeuronByCoord(x, targetRow)
		if err != nil {
			return err
		}

		for _, pattern := range patterns {
			synapses := make([]topology.Synapse, len(wolframOffsets))
			for i, off := range wolframOffsets {
				nx := wrap(x, off.DX, width)
				ny := wrap(targetRow, off.DY, height)
				synapses[i] = topology.Synapse{
					SourceID: topology.CoordID(nx, ny),
					Weight:   pattern[i],
				}
			}
			if err := dst.AddDendrite(1.0, synapses); err != nil {
				return err
			}
		}
	}
	return nil
}

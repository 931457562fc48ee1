package builder

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"daemonfield/common"
	"daemonfield/topology"
)

// BalanceByWeight shifts excitation/inhibition by scaling synapse weights,
// without changing connectivity shape. For target > 0, every synapse
// weight in every inhibitory dendrite (weight < 0) is multiplied by
// max(0.01, 1 - target); for target < 0, every synapse weight in every
// excitatory dendrite is multiplied by max(0.01, 1 + target). target == 0
// is a no-op. Results are clamped to [0, 1]. Input-locked neurons (which
// carry no dendrites) are skipped.
func BalanceByWeight(neurons []*topology.Neuron, target float64) {
	if target == 0 {
		return
	}

	var factor float64
	var wantInhibitory bool
	if target > 0 {
		factor = math.Max(0.01, 1-target)
		wantInhibitory = true
	} else {
		factor = math.Max(0.01, 1+target)
		wantInhibitory = false
	}

	weights := make([]float64, 0, 8)
	for _, n := range neurons {
		for d := range n.Dendrites {
			dend := &n.Dendrites[d]
			isInhibitory := dend.Weight < 0
			if isInhibitory != wantInhibitory {
				continue
			}

			weights = weights[:0]
			for _, s := range dend.Synapses {
				weights = append(weights, s.Weight)
			}
			floats.Scale(factor, weights)
			for i := range dend.Synapses {
				dend.Synapses[i].Weight = common.Clamp(weights[i], 0.0, 1.0)
			}
		}
	}
}

// BalanceBySynapseCount shifts excitation/inhibition by removing synapses
// rather than scaling weights. For target > 0, from every inhibitory
// dendrite with at least 2 synapses, floor(n * |target|) synapses are
// deleted uniformly at random, never leaving fewer than 1; mirrored for
// excitatory dendrites when target < 0.
func BalanceBySynapseCount(neurons []*topology.Neuron, target float64, rng *rand.Rand) {
	if target == 0 {
		return
	}

	var wantInhibitory bool
	if target > 0 {
		wantInhibitory = true
	} else {
		wantInhibitory = false
	}
	fraction := math.Abs(target)

	for _, n := range neurons {
		for d := range n.Dendrites {
			dend := &n.Dendrites[d]
			isInhibitory := dend.Weight < 0
			if isInhibitory != wantInhibitory {
				continue
			}
			count := len(dend.Synapses)
			if count < 2 {
				continue
			}

			toDelete := int(math.Floor(float64(count) * fraction))
			if toDelete >= count {
				toDelete = count - 1
			}
			if toDelete <= 0 {
				continue
			}

			rng.Shuffle(count, func(i, j int) {
				dend.Synapses[i], dend.Synapses[j] = dend.Synapses[j], dend.Synapses[i]
			})
			dend.Synapses = dend.Synapses[:count-toDelete]
		}
	}
}

package builder

import (
	"math/rand"
	"testing"

	"daemonfield/topology"
)

func TestBuildGridMarksInputRowsLocked(t *testing.T) {
	topo, regions := BuildGrid(3, 3, []int{2}, nil, 0.5)

	if topo.Len() != 9 {
		t.Fatalf("topo.Len() = %d, want 9", topo.Len())
	}

	n, err := topo.GetNeuronByCoord(1, 2)
	if err != nil {
		t.Fatalf("GetNeuronByCoord: %v", err)
	}
	if !n.InputLocked {
		t.Errorf("neuron on input row: InputLocked = false, want true")
	}

	other, _ := topo.GetNeuronByCoord(1, 0)
	if other.InputLocked {
		t.Errorf("neuron on non-input row: InputLocked = true, want false")
	}
	if other.Threshold != 0.5 {
		t.Errorf("other.Threshold = %v, want 0.5", other.Threshold)
	}

	if len(regions[RegionInput].IDs()) != 3 {
		t.Errorf("len(input region) = %d, want 3", len(regions[RegionInput].IDs()))
	}
}

func TestApplyMaskToroidalWrapGivesCornerSameConnectionCountAsCenter(t *testing.T) {
	topo, _ := BuildGrid(30, 30, nil, nil, 0.0)
	mask := Mask{
		{Weight: 1.0, Offsets: Moore(1)},
		{Weight: -1.0, Offsets: Ring(2, 4)},
	}
	if err := ApplyMask(topo, 30, 30, mask, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}

	center, _ := topo.GetNeuronByCoord(15, 15)
	corner, _ := topo.GetNeuronByCoord(0, 0)

	if len(center.Dendrites) != len(corner.Dendrites) {
		t.Fatalf("dendrite count center=%d corner=%d, want equal", len(center.Dendrites), len(corner.Dendrites))
	}
	for i := range center.Dendrites {
		if len(center.Dendrites[i].Synapses) != len(corner.Dendrites[i].Synapses) {
			t.Errorf("dendrite %d synapse count center=%d corner=%d, want equal",
				i, len(center.Dendrites[i].Synapses), len(corner.Dendrites[i].Synapses))
		}
	}
}

func TestApplyMaskEmptyOffsetsContributesNoDendrite(t *testing.T) {
	topo, _ := BuildGrid(3, 3, nil, nil, 0.0)
	mask := Mask{{Weight: 1.0, Offsets: nil}}
	if err := ApplyMask(topo, 3, 3, mask, nil); err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}
	n, _ := topo.GetNeuronByCoord(1, 1)
	if len(n.Dendrites) != 0 {
		t.Errorf("len(n.Dendrites) = %d, want 0", len(n.Dendrites))
	}
}

func TestMooreExcludesCenterAndMatchesChebyshev(t *testing.T) {
	offsets := Moore(1)
	if len(offsets) != 8 {
		t.Fatalf("len(Moore(1)) = %d, want 8", len(offsets))
	}
	for _, o := range offsets {
		if o.DX == 0 && o.DY == 0 {
			t.Errorf("Moore(1) includes center offset")
		}
	}
}

func TestVonNeumannManhattanRadius(t *testing.T) {
	offsets := VonNeumann(1)
	if len(offsets) != 4 {
		t.Fatalf("len(VonNeumann(1)) = %d, want 4", len(offsets))
	}
}

func TestRingChebyshevBounds(t *testing.T) {
	offsets := Ring(2, 3)
	for _, o := range offsets {
		d := maxInt(abs(o.DX), abs(o.DY))
		if d < 2 || d > 3 {
			t.Errorf("Ring(2,3) produced offset %+v with Chebyshev distance %d", o, d)
		}
	}
}

func TestSparseRingDensityFilter(t *testing.T) {
	full := Ring(2, 4)
	sparse := SparseRing(2, 4, 2)
	if len(sparse) >= len(full) {
		t.Errorf("SparseRing should filter out some offsets: full=%d sparse=%d", len(full), len(sparse))
	}
	for _, o := range sparse {
		if mod(o.DX+o.DY, 2) != 0 {
			t.Errorf("SparseRing offset %+v violates step filter", o)
		}
	}
}

func TestPartitionDropsEmptySectors(t *testing.T) {
	offsets := []Offset{{1, 0}} // a single offset can only occupy one sector
	sectors := Partition(offsets, 8)
	if len(sectors) != 1 {
		t.Fatalf("len(sectors) = %d, want 1", len(sectors))
	}
}

func TestBalanceByWeightZeroIsNoOp(t *testing.T) {
	n := buildBalanceTestNeuron()
	before := n.Dendrites[1].Synapses[0].Weight
	BalanceByWeight([]*topology.Neuron{n}, 0.0)
	if n.Dendrites[1].Synapses[0].Weight != before {
		t.Errorf("BalanceByWeight(0) modified weight: got %v, want %v", n.Dendrites[1].Synapses[0].Weight, before)
	}
}

func TestBalanceByWeightPositiveScalesInhibitoryByOneMinusTarget(t *testing.T) {
	n := buildBalanceTestNeuron()
	inhBefore := n.Dendrites[1].Synapses[0].Weight
	excBefore := n.Dendrites[0].Synapses[0].Weight

	BalanceByWeight([]*topology.Neuron{n}, 0.5)

	if n.Dendrites[0].Synapses[0].Weight != excBefore {
		t.Errorf("excitatory weight changed: got %v, want unchanged %v", n.Dendrites[0].Synapses[0].Weight, excBefore)
	}
	want := inhBefore * 0.5
	got := n.Dendrites[1].Synapses[0].Weight
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("inhibitory weight = %v, want %v", got, want)
	}
}

func TestBalanceByWeightTargetOneLeavesInhibitionNearZero(t *testing.T) {
	n := buildBalanceTestNeuron()
	BalanceByWeight([]*topology.Neuron{n}, 1.0)
	if w := n.Dendrites[1].Synapses[0].Weight; w >= 0.01 {
		t.Errorf("inhibitory weight after target=1.0 = %v, want < 0.01", w)
	}
}

func TestBalanceByWeightTargetMinusOneLeavesExcitationNearZero(t *testing.T) {
	n := buildBalanceTestNeuron()
	BalanceByWeight([]*topology.Neuron{n}, -1.0)
	if w := n.Dendrites[0].Synapses[0].Weight; w >= 0.01 {
		t.Errorf("excitatory weight after target=-1.0 = %v, want < 0.01", w)
	}
}

func buildBalanceTestNeuron() *topology.Neuron {
	n := topology.NewNeuron("test", 0.0)
	_ = n.AddDendrite(1.0, []topology.Synapse{{SourceID: "dummy", Weight: 0.8}})
	_ = n.AddDendrite(-1.0, []topology.Synapse{{SourceID: "dummy", Weight: 0.5}})
	return n
}

func TestSynthesizeWolframRuleEncodesPatternBits(t *testing.T) {
	topo, _ := BuildGrid(9, 5, []int{4}, nil, 0.99)
	if err := SynthesizeWolframRule(topo, 110, 3, 9, 5); err != nil {
		t.Fatalf("SynthesizeWolframRule: %v", err)
	}
	n, _ := topo.GetNeuronByCoord(4, 3)
	if len(n.Dendrites) == 0 {
		t.Fatalf("expected at least one dendrite for an active rule-110 pattern")
	}
	for _, d := range n.Dendrites {
		if d.Weight != 1.0 {
			t.Errorf("dendrite weight = %v, want 1.0", d.Weight)
		}
		if len(d.Synapses) != 3 {
			t.Errorf("len(d.Synapses) = %d, want 3", len(d.Synapses))
		}
	}
}

func TestConnectRowsNonToroidalGhostsOutOfBoundsSources(t *testing.T) {
	topo, _ := BuildGrid(3, 2, nil, nil, 0.0)
	mask := []Offset{{-1, 0}, {0, 0}, {1, 0}}
	weights := [][]float64{{1.0, 1.0, 1.0}}

	if err := ConnectRowsNonToroidal(topo, 0, 3, mask, weights, 1.0); err != nil {
		t.Fatalf("ConnectRowsNonToroidal: %v", err)
	}

	n, _ := topo.GetNeuronByCoord(0, 0)
	if len(n.Dendrites) != 1 || len(n.Dendrites[0].Synapses) != 3 {
		t.Fatalf("unexpected dendrite shape for edge neuron")
	}
	if n.Dendrites[0].Synapses[0].SourceID == topology.CoordID(-1, 0) {
		t.Errorf("out-of-bounds synapse source should be a ghost id, got a plain grid id")
	}
}

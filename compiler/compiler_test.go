package compiler

import (
	"reflect"
	"testing"

	"daemonfield/topology"
)

func buildSimpleTopology(t *testing.T) *topology.Topology {
	t.Helper()
	topo := topology.New()
	a := topology.NewNeuron("a", 0.5)
	b := topology.NewNeuron("b", 0.5)
	if err := a.AddDendrite(1.0, []topology.Synapse{{SourceID: "b", Weight: 0.8}}); err != nil {
		t.Fatalf("AddDendrite: %v", err)
	}
	topo.AddNeuron(a)
	topo.AddNeuron(b)
	return topo
}

func TestCompileIsReferentiallyTransparent(t *testing.T) {
	topo := buildSimpleTopology(t)

	p1, err := Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	p2, err := Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if !reflect.DeepEqual(p1.SynWeight, p2.SynWeight) ||
		!reflect.DeepEqual(p1.SynSource, p2.SynSource) ||
		!reflect.DeepEqual(p1.DendValid, p2.DendValid) {
		t.Errorf("Compile is not referentially transparent: arrays differ between runs")
	}
}

func TestCompileDendValidMatchesAtLeastOneValidSynapse(t *testing.T) {
	topo := buildSimpleTopology(t)
	p, err := Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for i := 0; i < p.NReal; i++ {
		for d := 0; d < p.D; d++ {
			expect := false
			for j := 0; j < p.S; j++ {
				off := p.SynIndex(i, j)
				if p.SynValid[off] && p.SynDendID[off] == d {
					expect = true
				}
			}
			got := p.DendValid[p.DendIndex(i, d)]
			if got != expect {
				t.Errorf("neuron %d dendrite %d: DendValid=%v, want %v", i, d, got, expect)
			}
		}
	}
}

func TestCompileAppendsGhostNeuronForDanglingSynapse(t *testing.T) {
	topo := topology.New()
	a := topology.NewNeuron("a", 0.5)
	if err := a.AddDendrite(1.0, []topology.Synapse{{SourceID: "_border_x-1y0", Weight: 0.5}}); err != nil {
		t.Fatalf("AddDendrite: %v", err)
	}
	topo.AddNeuron(a)

	p, err := Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if p.N != p.NReal+1 {
		t.Fatalf("p.N = %d, want NReal+1 = %d", p.N, p.NReal+1)
	}
	ghostIdx := p.N - 1
	if !p.InputLocked[ghostIdx] {
		t.Errorf("ghost neuron InputLocked = false, want true")
	}
	if p.Value[ghostIdx] != 0.0 {
		t.Errorf("ghost neuron Value = %v, want 0.0", p.Value[ghostIdx])
	}
	if p.SynSource[p.SynIndex(0, 0)] != ghostIdx {
		t.Errorf("dangling synapse source = %d, want ghost index %d", p.SynSource[p.SynIndex(0, 0)], ghostIdx)
	}
}

func TestCompileNoGhostWhenAllSourcesResolve(t *testing.T) {
	topo := buildSimpleTopology(t)
	p, err := Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.N != p.NReal {
		t.Errorf("p.N = %d, want NReal = %d (no ghost expected)", p.N, p.NReal)
	}
}

func TestCompilePadsInvalidSynapsesToTrashDendrite(t *testing.T) {
	topo := topology.New()
	a := topology.NewNeuron("a", 0.5)
	b := topology.NewNeuron("b", 0.5)
	// a carries 1+2 synapses, fixing S at 3; b has none, so its whole row
	// is padding.
	if err := a.AddDendrite(1.0, []topology.Synapse{{SourceID: "b", Weight: 0.5}}); err != nil {
		t.Fatalf("AddDendrite: %v", err)
	}
	if err := a.AddDendrite(-1.0, []topology.Synapse{{SourceID: "b", Weight: 0.3}, {SourceID: "b", Weight: 0.4}}); err != nil {
		t.Fatalf("AddDendrite: %v", err)
	}
	topo.AddNeuron(a)
	topo.AddNeuron(b)

	p, err := Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if p.S != 3 {
		t.Fatalf("p.S = %d, want 3 (1+2 synapses)", p.S)
	}
	for i := 0; i < p.NReal; i++ {
		for j := 0; j < p.S; j++ {
			off := p.SynIndex(i, j)
			if !p.SynValid[off] {
				if p.SynDendID[off] != p.D {
					t.Errorf("invalid synapse at row %d col %d: SynDendID = %d, want trash id %d", i, j, p.SynDendID[off], p.D)
				}
			}
		}
	}
}

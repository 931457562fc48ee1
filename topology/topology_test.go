package topology

import "testing"

func TestNewDendriteValidatesWeightRange(t *testing.T) {
	synapses := []Synapse{{SourceID: "x0y0", Weight: 0.5}}

	if _, err := NewDendrite(1.5, synapses); err == nil {
		t.Errorf("NewDendrite(1.5, ...) expected error, got nil")
	}
	if _, err := NewDendrite(-1.5, synapses); err == nil {
		t.Errorf("NewDendrite(-1.5, ...) expected error, got nil")
	}
	if _, err := NewDendrite(1.0, nil); err == nil {
		t.Errorf("NewDendrite with no synapses expected error, got nil")
	}
	if _, err := NewDendrite(1.0, []Synapse{{SourceID: "a", Weight: 1.5}}); err == nil {
		t.Errorf("NewDendrite with out-of-range synapse weight expected error, got nil")
	}
	if _, err := NewDendrite(1.0, synapses); err != nil {
		t.Errorf("NewDendrite valid input: unexpected error %v", err)
	}
}

func TestAddDendriteAppendsToNeuron(t *testing.T) {
	n := NewNeuron("x0y0", 0.5)
	err := n.AddDendrite(1.0, []Synapse{{SourceID: "x1y0", Weight: 0.3}})
	if err != nil {
		t.Fatalf("AddDendrite: unexpected error %v", err)
	}
	if len(n.Dendrites) != 1 {
		t.Errorf("len(n.Dendrites) = %d, want 1", len(n.Dendrites))
	}
}

func TestGetNeuronByIDUnknown(t *testing.T) {
	topo := New()
	topo.AddNeuron(NewNeuron("x0y0", 0.0))

	if _, err := topo.GetNeuronByID("x9y9"); err == nil {
		t.Errorf("GetNeuronByID(unknown) expected error, got nil")
	}
	if _, err := topo.GetNeuronByID("x0y0"); err != nil {
		t.Errorf("GetNeuronByID(known) unexpected error %v", err)
	}
}

func TestGetNeuronByCoordUsesCoordIDConvention(t *testing.T) {
	topo := New()
	n := NewNeuron(CoordID(3, 4), 0.0)
	n.Value = 0.75
	topo.AddNeuron(n)

	got, err := topo.GetNeuronByCoord(3, 4)
	if err != nil {
		t.Fatalf("GetNeuronByCoord: unexpected error %v", err)
	}
	if got.Value != 0.75 {
		t.Errorf("got.Value = %v, want 0.75", got.Value)
	}
}

func TestSnapshotGridDimensionsAndValues(t *testing.T) {
	topo := New()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			n := NewNeuron(CoordID(x, y), 0.0)
			n.Value = float64(y*3 + x)
			topo.AddNeuron(n)
		}
	}

	grid := topo.SnapshotGrid(3, 2)
	if len(grid) != 2 || len(grid[0]) != 3 {
		t.Fatalf("SnapshotGrid dims = %dx%d, want 2x3", len(grid), len(grid[0]))
	}
	if grid[1][2] != 5.0 {
		t.Errorf("grid[1][2] = %v, want 5.0", grid[1][2])
	}
}

func TestInputLockedNeuronHasNoDendritesByDefault(t *testing.T) {
	n := NewInputLockedNeuron("x0y0")
	if !n.InputLocked {
		t.Errorf("n.InputLocked = false, want true")
	}
	if len(n.Dendrites) != 0 {
		t.Errorf("len(n.Dendrites) = %d, want 0", len(n.Dendrites))
	}
}

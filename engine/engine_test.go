package engine

import (
	"math/rand"
	"testing"

	"daemonfield/builder"
	"daemonfield/compiler"
)

func wolframStep(t *testing.T, width, height, targetRow, rule int, seedX, seedY int) []float64 {
	t.Helper()
	topo, _ := builder.BuildGrid(width, height, nil, nil, 0.99)
	if err := builder.SynthesizeWolframRule(topo, rule, targetRow, width, height); err != nil {
		t.Fatalf("SynthesizeWolframRule: %v", err)
	}

	packed, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	eng := NewStepEngine(packed)

	seedIdx := seedY*width + seedX
	eng.Set(seedIdx, 1.0)

	eng.Step()

	grid := eng.Snapshot(width, height)
	return grid[targetRow]
}

func TestS1WolframRule110(t *testing.T) {
	row := wolframStep(t, 9, 5, 3, 110, 4, 4)
	want := []float64{0, 0, 0, 1, 1, 0, 0, 0, 0}
	assertRow(t, row, want)
}

func TestS2WolframRule30(t *testing.T) {
	row := wolframStep(t, 9, 5, 3, 30, 4, 4)
	want := []float64{0, 0, 0, 1, 1, 1, 0, 0, 0}
	assertRow(t, row, want)
}

func TestS3WolframRule90Triangle(t *testing.T) {
	row := wolframStep(t, 9, 3, 1, 90, 4, 2)
	want := []float64{0, 0, 0, 1, 0, 1, 0, 0, 0}
	assertRow(t, row, want)
}

func TestS4WolframRule110ToroidalWrap(t *testing.T) {
	row := wolframStep(t, 5, 3, 1, 110, 0, 2)
	if row[4] != 1 {
		t.Errorf("cell (4,1) = %v, want 1 (toroidal wrap pattern 001 under rule 110)", row[4])
	}
}

func assertRow(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %v, want %v (row: %v)", i, got[i], want[i], got)
		}
	}
}

func TestStepNEqualsSequentialSteps(t *testing.T) {
	topo, _ := builder.BuildGrid(6, 6, nil, nil, 0.3)
	mask := builder.Mask{
		{Weight: 1.0, Offsets: builder.Moore(1)},
	}
	if err := builder.ApplyMask(topo, 6, 6, mask, rand.New(rand.NewSource(7))); err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}

	packedA, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	packedB, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	engA := NewStepEngine(packedA)
	engB := NewStepEngine(packedB)

	for i := 0; i < 20; i++ {
		engA.Set(i, 1.0)
		engB.Set(i, 1.0)
	}

	engA.StepN(3)
	for k := 0; k < 3; k++ {
		engB.Step()
	}

	for i := range packedA.Value {
		if packedA.Value[i] != packedB.Value[i] {
			t.Errorf("neuron %d: StepN(3) = %v, 3x Step() = %v", i, packedA.Value[i], packedB.Value[i])
		}
	}
}

func TestInputLockedNeuronsNeverChange(t *testing.T) {
	topo, _ := builder.BuildGrid(5, 5, []int{2}, nil, 0.1)
	mask := builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}}
	if err := builder.ApplyMask(topo, 5, 5, mask, rand.New(rand.NewSource(2))); err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}

	packed, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	eng := NewStepEngine(packed)

	lockedIdx := 2*5 + 1 // x1y2, on the input-locked row
	eng.Set(lockedIdx, 0.73)

	eng.StepN(5)

	if packed.Value[lockedIdx] != 0.73 {
		t.Errorf("input-locked neuron value = %v, want 0.73 (unchanged)", packed.Value[lockedIdx])
	}
}

func TestRegularNeuronSettlesToBinary(t *testing.T) {
	topo, _ := builder.BuildGrid(4, 4, nil, nil, 0.2)
	mask := builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}}
	if err := builder.ApplyMask(topo, 4, 4, mask, rand.New(rand.NewSource(3))); err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}

	packed, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	eng := NewStepEngine(packed)
	eng.Set(0, 1.0)
	eng.Step()

	for i := 0; i < packed.NReal; i++ {
		if packed.InputLocked[i] {
			continue
		}
		v := packed.Value[i]
		if v != 0.0 && v != 1.0 {
			t.Errorf("neuron %d = %v, want exactly 0 or 1 after threshold", i, v)
		}
	}
}

func TestEmptyDendritesNeuronStaysZero(t *testing.T) {
	topo, _ := builder.BuildGrid(3, 3, nil, nil, 0.5)
	packed, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	eng := NewStepEngine(packed)
	eng.Step()
	for i, v := range packed.Value {
		if v != 0.0 {
			t.Errorf("neuron %d with no dendrites = %v, want 0 (tension stays 0)", i, v)
		}
	}
}

func TestSetClampsOutOfRangeValues(t *testing.T) {
	topo, _ := builder.BuildGrid(2, 2, nil, nil, 0.5)
	packed, err := compiler.Compile(topo)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	eng := NewStepEngine(packed)

	eng.Set(0, 5.0)
	if packed.Value[0] != 1.0 {
		t.Errorf("Set(5.0) = %v, want clamped to 1.0", packed.Value[0])
	}
	eng.Set(1, -2.0)
	if packed.Value[1] != 0.0 {
		t.Errorf("Set(-2.0) = %v, want clamped to 0.0", packed.Value[1])
	}
}

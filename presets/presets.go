// Package presets hosts the static mask/preset catalogue: Mexican-hat
// lateral-competition masks and Wolfram-rule presets, each pre-computed
// once at package init with its preview grid and wiring stats. The
// catalogue is read-only after process start, mirroring the source
// material's `MASK_PRESETS` registry.
package presets

import (
	"math"

	"daemonfield/builder"
)

// MaskType distinguishes a lateral-competition ("kohonen") preset from a
// Wolfram elementary-CA preset; the two use different Builder entry
// points (ApplyMask vs SynthesizeWolframRule) and seeding rules.
type MaskType string

const (
	MaskTypeKohonen MaskType = "kohonen"
	MaskTypeWolfram MaskType = "wolfram"
)

// minPreviewRadius matches the source catalogue's default 19x19 window
// (radius 9 on each side of the inspected cell); computePreviewGrid widens
// the window beyond this for any mask whose own maximum Chebyshev radius
// exceeds it, so the preview's outer radius always matches the preset's
// true maximum radius rather than silently clipping it.
const (
	minPreviewRadius = 9
	previewSentinel  = 999.0
)

// Stats reports static wiring statistics for one preset's offsets,
// computed over Chebyshev distance.
type Stats struct {
	ExcitatorySynapses int
	InhibitorySynapses int
	RatioExcInh        float64
	ExcitationRadius   int
	InhibitionRadius   int
}

// Entry is one catalogue entry: human-readable metadata plus the
// precomputed preview grid and stats. For MaskType kohonen, Mask holds
// the dendrite templates to pass to builder.ApplyMask. For MaskType
// wolfram, Rule holds the elementary-CA rule number to pass to
// builder.SynthesizeWolframRule; Mask is left nil.
type Entry struct {
	ID            string
	Name          string
	Description   string
	Center        string
	Corona        string
	DendritesInh  int
	RandomWeights bool
	MaskType      MaskType
	Mask          builder.Mask
	Rule          int
	PreviewGrid   [][]*float64
	Stats         Stats
}

var catalogue = map[string]*Entry{}

// All returns every catalogue entry in registration order.
func All() []*Entry {
	ids := []string{
		"all_exc", "all_inh", "simple", "wide_hat", "narrow_hat", "big_center",
		"cross_center", "one_dendrite", "fine_grain", "double_ring",
		"soft_inhibit", "strong_center", "gradual_center", "gradual_big_inh",
		"gradual_xxl_inh", "wolfram_30", "wolfram_90", "wolfram_110", "wolfram_111",
	}
	out := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalogue[id])
	}
	return out
}

// Get looks up a preset by id. ok is false for an unknown id.
func Get(id string) (*Entry, bool) {
	e, ok := catalogue[id]
	return e, ok
}

func register(e *Entry) {
	if e.MaskType == "" {
		e.MaskType = MaskTypeKohonen
	}
	if e.MaskType == MaskTypeKohonen {
		e.PreviewGrid = computePreviewGrid(e.Mask)
		e.Stats = computeStats(e.Mask)
	} else {
		wolframMask := builder.Mask{{Weight: 1.0, Offsets: wolframAdjacency}}
		e.PreviewGrid = computePreviewGrid(wolframMask)
		e.Stats = computeStats(wolframMask)
	}
	catalogue[e.ID] = e
}

// wolframAdjacency mirrors builder's wolframOffsets (the three
// toroidally-read cells of the row below) for preview/stats purposes;
// the actual per-pattern synapse weights are built by
// builder.SynthesizeWolframRule, not by this structural approximation.
var wolframAdjacency = []builder.Offset{{DX: -1, DY: 1}, {DX: 0, DY: 1}, {DX: 1, DY: 1}}

func init() {
	register(&Entry{
		ID: "all_exc", Name: "Todo Exc",
		Description:  "1 dendrita exc. r=1 (8 vecinos).",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "sin inhibición",
		DendritesInh: 0,
		Mask:         builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}},
	})

	register(&Entry{
		ID: "all_inh", Name: "Todo Inh",
		Description:  "1 dendrita inh. r=1 (8 vecinos).",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "sin excitación",
		DendritesInh: 1,
		Mask:         builder.Mask{{Weight: -1.0, Offsets: builder.Moore(1)}},
	})

	register(&Entry{
		ID: "simple", Name: "Kohonen Simple",
		Description:  "Moore r=1, corona r=2-4, 8 dendritas inh.",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-4, 8 bloques 3x3",
		DendritesInh: 8,
		Mask:         simpleMask(),
	})

	register(&Entry{
		ID: "wide_hat", Name: "Sombrero Ancho",
		Description:  "Moore r=1, corona r=2-7, 8 dendritas inh.",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-7, corona grande",
		DendritesInh: 8,
		Mask: append(builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}},
			toMask(builder.InhibitoryDendrites(builder.Ring(2, 7), -1.0, 8))...),
	})

	register(&Entry{
		ID: "narrow_hat", Name: "Sombrero Estrecho",
		Description:  "Moore r=1, corona r=2-3, 8 dendritas inh.",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-3, corona cercana",
		DendritesInh: 8,
		Mask: append(builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}},
			toMask(builder.InhibitoryDendrites(builder.Ring(2, 3), -1.0, 8))...),
	})

	register(&Entry{
		ID: "big_center", Name: "Centro Grande",
		Description:  "Moore r=2 (24 vecinos), corona r=4-7, 8 dendritas inh.",
		Center:       "Moore r=2 (24 vecinos)",
		Corona:       "r=4-7, corona lejana",
		DendritesInh: 8,
		Mask: append(builder.Mask{{Weight: 1.0, Offsets: builder.Moore(2)}},
			toMask(builder.InhibitoryDendrites(builder.Ring(4, 7), -1.0, 8))...),
	})

	register(&Entry{
		ID: "cross_center", Name: "Cruz Central",
		Description:  "Von Neumann r=1 (4 vecinos), corona r=2-4, 4 dendritas inh.",
		Center:       "Von Neumann r=1 (4 vecinos)",
		Corona:       "r=2-4, 4 bloques cardinales",
		DendritesInh: 4,
		Mask: append(builder.Mask{{Weight: 1.0, Offsets: builder.VonNeumann(1)}},
			toMask(builder.InhibitoryDendrites(builder.Ring(2, 4), -1.0, 4))...),
	})

	register(&Entry{
		ID: "one_dendrite", Name: "Una Dendrita",
		Description:  "Moore r=1, corona r=2-4 en 1 sola dendrita inh.",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-4, todo en 1 dendrita",
		DendritesInh: 1,
		Mask: builder.Mask{
			{Weight: 1.0, Offsets: builder.Moore(1)},
			{Weight: -1.0, Offsets: builder.Ring(2, 4)},
		},
	})

	register(&Entry{
		ID: "fine_grain", Name: "Grano Fino",
		Description:  "Moore r=1, corona r=2-4, 16 sectores inh.",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-4, 16 sectores",
		DendritesInh: 16,
		Mask: append(builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}},
			toMask(builder.InhibitoryDendrites(builder.Ring(2, 4), -1.0, 16))...),
	})

	register(&Entry{
		ID: "double_ring", Name: "Doble Anillo",
		Description:  "Moore r=1, anillo r=2-3 (-1) + anillo r=5-7 (-0.5).",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-3 (-1) + r=5-7 (-0.5)",
		DendritesInh: 16,
		Mask: func() builder.Mask {
			m := builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}}
			m = append(m, toMask(builder.InhibitoryDendrites(builder.Ring(2, 3), -1.0, 8))...)
			m = append(m, toMask(builder.InhibitoryDendrites(builder.Ring(5, 7), -0.5, 8))...)
			return m
		}(),
	})

	register(&Entry{
		ID: "soft_inhibit", Name: "Inhibicion Suave",
		Description:  "Moore r=1, corona r=2-4, peso inh. -0.5.",
		Center:       "Moore r=1 (8 vecinos)",
		Corona:       "r=2-4, peso -0.5",
		DendritesInh: 8,
		Mask: append(builder.Mask{{Weight: 1.0, Offsets: builder.Moore(1)}},
			toMask(builder.InhibitoryDendrites(builder.Ring(2, 4), -0.5, 8))...),
	})

	register(&Entry{
		ID: "strong_center", Name: "Centro Fuerte",
		Description:  "Moore r=1 x2 dendritas exc., corona r=2-4.",
		Center:       "Moore r=1 (2 dendritas exc.)",
		Corona:       "r=2-4, peso -1",
		DendritesInh: 8,
		Mask: func() builder.Mask {
			m := builder.Mask{
				{Weight: 1.0, Offsets: builder.Moore(1)},
				{Weight: 1.0, Offsets: builder.Moore(1)},
			}
			m = append(m, toMask(builder.InhibitoryDendrites(builder.Ring(2, 4), -1.0, 8))...)
			return m
		}(),
	})

	register(&Entry{
		ID: "gradual_center", Name: "Centro Gradual",
		Description:  "Exc. gradual r=1(1.0) r=2(0.6) r=3(0.3), gap 2px, inh. sparse r=6-11.",
		Center:       "Gradual r=1→1.0, r=2→0.6, r=3→0.3",
		Corona:       "r=6-11, checkerboard sparse",
		DendritesInh: 8,
		Mask:         gradualMask(builder.SparseRing(6, 11, 2)),
	})

	register(&Entry{
		ID: "gradual_big_inh", Name: "Centro Gradual Big Inh",
		Description:  "Exc. gradual r=1-3, gap 4px, inh. sparse r=8-19.",
		Center:       "Gradual r=1→1.0, r=2→0.6, r=3→0.3",
		Corona:       "r=8-19, sparse step=3",
		DendritesInh: 8,
		Mask:         gradualMask(builder.SparseRing(8, 19, 3)),
	})

	register(&Entry{
		ID: "gradual_xxl_inh", Name: "Centro Gradual XXL Inh",
		Description:  "Exc. gradual r=1-3, gap 4px, inh. sparse r=8-30.",
		Center:       "Gradual r=1→1.0, r=2→0.6, r=3→0.3",
		Corona:       "r=8-30, sparse step=4",
		DendritesInh: 8,
		Mask:         gradualMask(builder.SparseRing(8, 30, 4)),
	})

	register(&Entry{
		ID: "wolfram_30", Name: "Wolfram Rule 30",
		Description: "Elementary CA rule 30 (chaotic).",
		Center:      "3 sinapsis exactas, fila inferior",
		Corona:      "",
		MaskType:    MaskTypeWolfram,
		Rule:        30,
	})
	register(&Entry{
		ID: "wolfram_90", Name: "Wolfram Rule 90",
		Description: "Elementary CA rule 90 (Sierpinski triangle).",
		Center:      "3 sinapsis exactas, fila inferior",
		Corona:      "",
		MaskType:    MaskTypeWolfram,
		Rule:        90,
	})
	register(&Entry{
		ID: "wolfram_110", Name: "Wolfram Rule 110",
		Description: "Elementary CA rule 110 (Turing-complete).",
		Center:      "3 sinapsis exactas, fila inferior",
		Corona:      "",
		MaskType:    MaskTypeWolfram,
		Rule:        110,
	})
	register(&Entry{
		ID: "wolfram_111", Name: "Wolfram Rule 111",
		Description: "Elementary CA rule 111.",
		Center:      "3 sinapsis exactas, fila inferior",
		Corona:      "",
		MaskType:    MaskTypeWolfram,
		Rule:        111,
	})
}

// simpleMask reproduces KOHONEN_SIMPLE_MASK's literal offset blocks: one
// excitatory Moore(1) dendrite plus eight hand-placed 3x3 inhibitory
// blocks tiling the r=2..4 corona.
func simpleMask() builder.Mask {
	return builder.Mask{
		{Weight: 1.0, Offsets: builder.Moore(1)},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: 2, DY: -4}, {DX: 2, DY: -3}, {DX: 2, DY: -2},
			{DX: 3, DY: -4}, {DX: 3, DY: -3}, {DX: 3, DY: -2},
			{DX: 4, DY: -4}, {DX: 4, DY: -3}, {DX: 4, DY: -2},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: 2, DY: -1}, {DX: 2, DY: 0}, {DX: 2, DY: 1},
			{DX: 3, DY: -1}, {DX: 3, DY: 0}, {DX: 3, DY: 1},
			{DX: 4, DY: -1}, {DX: 4, DY: 0}, {DX: 4, DY: 1},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: 2, DY: 2}, {DX: 2, DY: 3}, {DX: 2, DY: 4},
			{DX: 3, DY: 2}, {DX: 3, DY: 3}, {DX: 3, DY: 4},
			{DX: 4, DY: 2}, {DX: 4, DY: 3}, {DX: 4, DY: 4},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: -1, DY: 2}, {DX: -1, DY: 3}, {DX: -1, DY: 4},
			{DX: 0, DY: 2}, {DX: 0, DY: 3}, {DX: 0, DY: 4},
			{DX: 1, DY: 2}, {DX: 1, DY: 3}, {DX: 1, DY: 4},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: -4, DY: 2}, {DX: -4, DY: 3}, {DX: -4, DY: 4},
			{DX: -3, DY: 2}, {DX: -3, DY: 3}, {DX: -3, DY: 4},
			{DX: -2, DY: 2}, {DX: -2, DY: 3}, {DX: -2, DY: 4},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: -4, DY: -1}, {DX: -4, DY: 0}, {DX: -4, DY: 1},
			{DX: -3, DY: -1}, {DX: -3, DY: 0}, {DX: -3, DY: 1},
			{DX: -2, DY: -1}, {DX: -2, DY: 0}, {DX: -2, DY: 1},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: -4, DY: -4}, {DX: -4, DY: -3}, {DX: -4, DY: -2},
			{DX: -3, DY: -4}, {DX: -3, DY: -3}, {DX: -3, DY: -2},
			{DX: -2, DY: -4}, {DX: -2, DY: -3}, {DX: -2, DY: -2},
		}},
		{Weight: -1.0, Offsets: []builder.Offset{
			{DX: -1, DY: -4}, {DX: -1, DY: -3}, {DX: -1, DY: -2},
			{DX: 0, DY: -4}, {DX: 0, DY: -3}, {DX: 0, DY: -2},
			{DX: 1, DY: -4}, {DX: 1, DY: -3}, {DX: 1, DY: -2},
		}},
	}
}

// gradualMask builds the three-ring graduated excitatory center shared by
// the gradual_* presets, topped with an inhibitory corona built from the
// given (already-computed) sparse ring offsets.
func gradualMask(inhOffsets []builder.Offset) builder.Mask {
	m := builder.Mask{
		{Weight: 1.0, Offsets: builder.Ring(1, 1)},
		{Weight: 0.6, Offsets: builder.Ring(2, 2)},
		{Weight: 0.3, Offsets: builder.Ring(3, 3)},
	}
	m = append(m, toMask(builder.InhibitoryDendrites(inhOffsets, -1.0, 8))...)
	return m
}

func toMask(templates []builder.DendriteTemplate) builder.Mask {
	return builder.Mask(templates)
}

// computePreviewGrid lays a mask's dendrite offsets onto a square window
// centered on the inspected cell (sentinel 999). The window radius is the
// larger of minPreviewRadius and the mask's own maximum Chebyshev offset,
// so no offset is ever clipped out of the preview. Where two dendrites
// overlap the same cell, the one with the larger |weight| wins.
func computePreviewGrid(mask builder.Mask) [][]*float64 {
	radius := minPreviewRadius
	for _, tmpl := range mask {
		for _, off := range tmpl.Offsets {
			if r := chebyshev(off.DX, off.DY); r > radius {
				radius = r
			}
		}
	}
	size := 2*radius + 1
	center := radius

	grid := make([][]*float64, size)
	for r := range grid {
		grid[r] = make([]*float64, size)
	}
	sentinel := previewSentinel
	grid[center][center] = &sentinel

	for _, tmpl := range mask {
		w := tmpl.Weight
		for _, off := range tmpl.Offsets {
			col := center + off.DX
			row := center + off.DY
			if row < 0 || row >= size || col < 0 || col >= size {
				continue
			}
			existing := grid[row][col]
			if existing == nil || math.Abs(w) > math.Abs(*existing) {
				v := w
				grid[row][col] = &v
			}
		}
	}
	return grid
}

// computeStats tallies excitatory/inhibitory synapse counts and maximum
// Chebyshev radii over a mask's offsets.
func computeStats(mask builder.Mask) Stats {
	var s Stats
	for _, tmpl := range mask {
		n := len(tmpl.Offsets)
		maxR := 0
		for _, off := range tmpl.Offsets {
			if r := chebyshev(off.DX, off.DY); r > maxR {
				maxR = r
			}
		}
		if tmpl.Weight > 0 {
			s.ExcitatorySynapses += n
			if maxR > s.ExcitationRadius {
				s.ExcitationRadius = maxR
			}
		} else {
			s.InhibitorySynapses += n
			if maxR > s.InhibitionRadius {
				s.InhibitionRadius = maxR
			}
		}
	}
	divisor := s.InhibitorySynapses
	if divisor < 1 {
		divisor = 1
	}
	s.RatioExcInh = math.Round(float64(s.ExcitatorySynapses)/float64(divisor)*1000) / 1000
	return s
}

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

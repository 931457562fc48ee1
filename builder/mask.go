package builder

import (
	"math"
	"math/rand"

	"daemonfield/topology"
)

// Offset is a relative (dx, dy) displacement from a target cell. Positive
// dx is east (increasing column), positive dy is south (increasing row).
type Offset struct {
	DX, DY int
}

// DendriteTemplate describes one dendrite to be instantiated at every grid
// cell: its weight and the offsets of its synapses, resolved toroidally
// around the target cell. If ExplicitWeights is non-nil it supplies the
// synapse weight at the matching offset index; otherwise, if
// RandomWeights is true, each synapse weight is drawn uniformly from
// [0.2, 1.0]; otherwise every synapse weight is the constant 1.0.
type DendriteTemplate struct {
	Weight          float64
	Offsets         []Offset
	ExplicitWeights []float64
	RandomWeights   bool
}

// Mask is an ordered list of dendrite templates, reused at every cell.
type Mask []DendriteTemplate

// ApplyMask instantiates mask on every cell of a width x height grid
// already built by BuildGrid, wrapping neighbor lookups toroidally on both
// axes. A template contributing zero synapses (empty Offsets) produces no
// dendrite. rng supplies the uniform synapse weight draws for templates
// with RandomWeights set; it may be nil if no template in mask uses
// RandomWeights.
func ApplyMask(topo *topology.Topology, width, height int, mask Mask, rng *rand.Rand) error {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dst, err := topo.GetNeuronByCoord(x, y)
			if err != nil {
				return err
			}

			for _, tmpl := range mask {
				if len(tmpl.Offsets) == 0 {
					continue
				}

				synapses := make([]topology.Synapse, 0, len(tmpl.Offsets))
				for i, off := range tmpl.Offsets {
					nx := wrap(x, off.DX, width)
					ny := wrap(y, off.DY, height)

					weight := 1.0
					switch {
					case tmpl.ExplicitWeights != nil && i < len(tmpl.ExplicitWeights):
						weight = tmpl.ExplicitWeights[i]
					case tmpl.RandomWeights:
						weight = 0.2 + rng.Float64()*0.8
					}

					synapses = append(synapses, topology.Synapse{
						SourceID: topology.CoordID(nx, ny),
						Weight:   weight,
					})
				}

				if err := dst.AddDendrite(tmpl.Weight, synapses); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Moore returns the Moore neighborhood offsets (Chebyshev distance <=
// radius, center excluded).
func Moore(radius int) []Offset {
	offsets := make([]Offset, 0, (2*radius+1)*(2*radius+1)-1)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			offsets = append(offsets, Offset{dx, dy})
		}
	}
	return offsets
}

// VonNeumann returns offsets with Manhattan distance in [1, radius],
// center excluded.
func VonNeumann(radius int) []Offset {
	var offsets []Offset
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := abs(dx) + abs(dy)
			if d > 0 && d <= radius {
				offsets = append(offsets, Offset{dx, dy})
			}
		}
	}
	return offsets
}

// Ring returns offsets with Chebyshev distance in [rIn, rOut].
func Ring(rIn, rOut int) []Offset {
	var offsets []Offset
	for dy := -rOut; dy <= rOut; dy++ {
		for dx := -rOut; dx <= rOut; dx++ {
			d := maxInt(abs(dx), abs(dy))
			if d >= rIn && d <= rOut {
				offsets = append(offsets, Offset{dx, dy})
			}
		}
	}
	return offsets
}

// SparseRing returns Ring(rIn, rOut) filtered to offsets where
// (dx+dy) mod step == 0, giving a checkerboard-like reduced density.
func SparseRing(rIn, rOut, step int) []Offset {
	var offsets []Offset
	for dy := -rOut; dy <= rOut; dy++ {
		for dx := -rOut; dx <= rOut; dx++ {
			d := maxInt(abs(dx), abs(dy))
			if d >= rIn && d <= rOut && mod(dx+dy, step) == 0 {
				offsets = append(offsets, Offset{dx, dy})
			}
		}
	}
	return offsets
}

// SectorOf assigns an offset to one of nSectors equal-width directional
// sectors, clockwise from +x (east).
func SectorOf(dx, dy, nSectors int) int {
	angle := math.Atan2(float64(dy), float64(dx))
	width := 2 * math.Pi / float64(nSectors)
	a := math.Mod(angle+width/2, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	idx := int(a / width)
	return mod(idx, nSectors)
}

// Partition splits offsets into up to nSectors directional groups,
// dropping empty sectors. Useful to turn one large ring into several
// smaller directional dendrites (e.g. for lateral inhibition).
func Partition(offsets []Offset, nSectors int) [][]Offset {
	sectors := make([][]Offset, nSectors)
	for _, off := range offsets {
		s := SectorOf(off.DX, off.DY, nSectors)
		sectors[s] = append(sectors[s], off)
	}

	result := make([][]Offset, 0, nSectors)
	for _, s := range sectors {
		if len(s) > 0 {
			result = append(result, s)
		}
	}
	return result
}

// Translate shifts every offset by a fixed vector.
func Translate(offsets []Offset, dx, dy int) []Offset {
	result := make([]Offset, len(offsets))
	for i, off := range offsets {
		result[i] = Offset{off.DX + dx, off.DY + dy}
	}
	return result
}

// RandomSparse keeps each offset with probability density, using a
// deterministic PRNG seeded explicitly by the caller (independent of any
// process-global generator), per the spec's requirement that sparse
// helpers be reproducible from an explicit seed.
func RandomSparse(offsets []Offset, density float64, seed int64) []Offset {
	rng := rand.New(rand.NewSource(seed))
	var result []Offset
	for _, off := range offsets {
		if rng.Float64() < density {
			result = append(result, off)
		}
	}
	return result
}

// InhibitoryDendrites builds one (or, if nSectors > 1, several
// sector-partitioned) dendrite templates covering offsets at the given
// weight, used to assemble Mexican-hat lateral-inhibition coronas from a
// ring of offsets.
func InhibitoryDendrites(offsets []Offset, weight float64, nSectors int) []DendriteTemplate {
	if nSectors <= 1 {
		return []DendriteTemplate{{Weight: weight, Offsets: offsets}}
	}
	sectors := Partition(offsets, nSectors)
	templates := make([]DendriteTemplate, len(sectors))
	for i, s := range sectors {
		templates[i] = DendriteTemplate{Weight: weight, Offsets: s}
	}
	return templates
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

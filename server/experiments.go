package server

import (
	"daemonfield/presets"
	"daemonfield/storage"
)

// experimentDescriptor is the wire shape of one entry returned by
// /api/experiments and /api/experiments/{id}: metadata plus the knobs a
// client needs to start a session of that kind.
type experimentDescriptor struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Description   string                   `json:"description"`
	DefaultConfig configDTO                `json:"default_config"`
	Rules         []int                    `json:"rules,omitempty"`
	Masks         []storage.PresetDescriptor `json:"masks,omitempty"`
	BalanceModes  []balanceModeDescriptor  `json:"balance_modes,omitempty"`
}

type balanceModeDescriptor struct {
	ID string `json:"id"`
}

var allBalanceModes = []balanceModeDescriptor{{ID: "none"}, {ID: "weight"}, {ID: "synapse_count"}}

// experimentRegistry holds the two fixed experiment kinds the source
// material exposes: the Wolfram elementary-CA family ("von_neumann") and
// the lateral-competition family ("kohonen"), each carrying its own
// default_config and — for the preset-driven kohonen kind — the full mask
// catalogue and balance mode list a client can pick from.
func experimentRegistry() map[string]experimentDescriptor {
	masks := make([]storage.PresetDescriptor, 0, len(presets.All()))
	for _, e := range presets.All() {
		masks = append(masks, storage.ToDescriptor(e))
	}

	return map[string]experimentDescriptor{
		"von_neumann": {
			ID:          "von_neumann",
			Name:        "Von Neumann / Elementary CA",
			Description: "Wolfram elementary cellular automaton driven by a single rule number, propagated row by row across a toroidal grid.",
			DefaultConfig: configDTO{
				Width: 50, Height: 50, Mask: "wolfram_111", Rule: 111,
				BalanceMode: "none", FPS: 10, StepsPerTick: 1,
			},
			Rules: []int{111, 30, 90, 110},
		},
		"kohonen": {
			ID:          "kohonen",
			Name:        "Kohonen / Lateral Competition",
			Description: "Lateral-inhibition network over a mask-defined dendrite template, evolving toward stable excitation clusters (\"daemons\").",
			DefaultConfig: configDTO{
				Width: 30, Height: 30, Mask: "simple", BalanceMode: "none",
				FPS: 10, StepsPerTick: 1,
			},
			Masks:        masks,
			BalanceModes: allBalanceModes,
		},
	}
}

package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"daemonfield/presets"
)

// PresetDescriptor is the JSON-serializable shape of one preset catalogue
// entry, matching the wire format served over the experiments HTTP
// endpoints: metadata, the precomputed preview grid, and mask stats.
type PresetDescriptor struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Center        string           `json:"center"`
	Corona        string           `json:"corona"`
	DendritesInh  int              `json:"dendrites_inh"`
	RandomWeights bool             `json:"random_weights"`
	MaskType      string           `json:"mask_type"`
	PreviewGrid   [][]*float64     `json:"preview_grid"`
	MaskStats     PresetStatsJSON  `json:"mask_stats"`
}

// PresetStatsJSON is the JSON shape of presets.Stats.
type PresetStatsJSON struct {
	ExcitatorySynapses int     `json:"excitatory_synapses"`
	InhibitorySynapses int     `json:"inhibitory_synapses"`
	RatioExcInh        float64 `json:"ratio_exc_inh"`
	ExcitationRadius   int     `json:"excitation_radius"`
	InhibitionRadius   int     `json:"inhibition_radius"`
}

// ToDescriptor converts a presets.Entry into its JSON wire shape, shared by
// ExportPresetCatalogJSON and the experiments HTTP endpoint.
func ToDescriptor(e *presets.Entry) PresetDescriptor {
	return PresetDescriptor{
		ID:            e.ID,
		Name:          e.Name,
		Description:   e.Description,
		Center:        e.Center,
		Corona:        e.Corona,
		DendritesInh:  e.DendritesInh,
		RandomWeights: e.RandomWeights,
		MaskType:      string(e.MaskType),
		PreviewGrid:   e.PreviewGrid,
		MaskStats: PresetStatsJSON{
			ExcitatorySynapses: e.Stats.ExcitatorySynapses,
			InhibitorySynapses: e.Stats.InhibitorySynapses,
			RatioExcInh:        e.Stats.RatioExcInh,
			ExcitationRadius:   e.Stats.ExcitationRadius,
			InhibitionRadius:   e.Stats.InhibitionRadius,
		},
	}
}

// ExportPresetCatalogJSON serializes the full preset catalogue to a JSON
// file at filePath, indented for human readability. File permissions are
// 0644.
func ExportPresetCatalogJSON(filePath string) error {
	entries := presets.All()
	descriptors := make([]PresetDescriptor, 0, len(entries))
	for _, e := range entries {
		descriptors = append(descriptors, ToDescriptor(e))
	}

	data, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize preset catalogue to JSON: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset catalogue JSON file %s: %w", filePath, err)
	}
	return nil
}

// LoadPresetCatalogJSON deserializes a preset catalogue JSON file previously
// written by ExportPresetCatalogJSON, e.g. for a frontend build step that
// bakes the catalogue into a static asset.
func LoadPresetCatalogJSON(filePath string) ([]PresetDescriptor, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preset catalogue JSON file %s not found: %w", filePath, err)
		}
		return nil, fmt.Errorf("failed to read preset catalogue JSON file %s: %w", filePath, err)
	}

	var descriptors []PresetDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset catalogue from %s: %w", filePath, err)
	}
	return descriptors, nil
}

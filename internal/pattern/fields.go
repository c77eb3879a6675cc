package pattern

import "github.com/ignite/ad-insights/internal/domain"

// FieldSource is an analysis record that can report a field as a string.
// ok is false when the field is unset.
type FieldSource interface {
	FieldValue(name string) (string, bool)
}

// Accessor returns the analysis record of ad that a field set reads, or
// nil when the ad has none.
type Accessor func(ad domain.Ad) FieldSource

// FieldSet is the list of fields mined for one analysis type.
type FieldSet struct {
	Type   domain.AnalysisType
	Fields []string
	Get    Accessor
}

// ImageFields are the categorical image-analysis fields compared across populations.
var ImageFields = FieldSet{
	Type:   domain.AnalysisImage,
	Fields: []string{"color_tone", "has_person", "layout_type", "saturation", "atmosphere"},
	Get: func(ad domain.Ad) FieldSource {
		if ad.ImageAnalysis == nil {
			return nil
		}
		return ad.ImageAnalysis
	},
}

// CopyFields are the categorical copy-analysis fields compared across populations.
var CopyFields = FieldSet{
	Type:   domain.AnalysisCopy,
	Fields: []string{"formality", "emotion", "style", "core_message"},
	Get: func(ad domain.Ad) FieldSource {
		if ad.CopyAnalysis == nil {
			return nil
		}
		return ad.CopyAnalysis
	},
}

// DefaultFieldSets is mined by Engine.Run, image fields first.
var DefaultFieldSets = []FieldSet{ImageFields, CopyFields}

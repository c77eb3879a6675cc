package ai

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"
)

const imagePrompt = `# Ad image analysis

Analyze the attached ad image and answer in JSON.

1. composition: has_person (boolean), person_type (student/teacher/parent/none),
   text_ratio (share of the image covered by text, integer 0-100), has_chart (boolean),
   logo_position (top_left/top_right/bottom_left/bottom_right/center/none)
2. colors: primary, secondary, tertiary (HEX such as "#1E3A8A", or null),
   tone (bright/medium/dark), saturation (high/medium/low)
3. layout: type (top_bottom_split/left_right_split/center_focus/full_text),
   atmosphere (serious/energetic/friendly/premium), emphasis_elements (array, e.g. ["numbers", "logo"])
4. mentioned_regions: place names visible in the image (array)

Respond with JSON only, in this shape:
{"composition": {"has_person": true, "person_type": "student", "text_ratio": 45, "has_chart": false, "logo_position": "bottom_right"},
 "colors": {"primary": "#1E3A8A", "secondary": "#F59E0B", "tertiary": null, "tone": "bright", "saturation": "high"},
 "layout": {"type": "top_bottom_split", "atmosphere": "serious", "emphasis_elements": ["numbers"]},
 "mentioned_regions": []}`

const copyPrompt = `# Ad copy analysis

Analyze the ad copy below and answer in JSON.

---
{{ body | default: "(none)" }}
---
{{ title | default: "(none)" }}
---

1. structure: headline, headline_length (characters), body, cta,
   core_message (achievement/social_proof/free_trial/discount/management)
2. numbers: array of {"value", "unit", "context"} for every number quoted
3. offer: discount_info, free_benefit, social_proof, urgency, differentiation (string or null)
4. tone: formality (formal/informal/medium), emotion (rational/emotional/balanced),
   style (challenging/stable)
5. target_audience, keywords (5-10), regions (place names)

Respond with JSON only, in this shape:
{"structure": {"headline": "", "headline_length": 0, "body": "", "cta": "", "core_message": "social_proof"},
 "numbers": [{"value": 83, "unit": "%", "context": "chose us"}],
 "offer": {"discount_info": null, "free_benefit": null, "social_proof": null, "urgency": null, "differentiation": null},
 "tone": {"formality": "formal", "emotion": "rational", "style": "stable"},
 "target_audience": "", "keywords": [], "regions": []}`

const summaryPrompt = `# Success formula from ad patterns
{% if industry != "" %}
Industry: {{ industry }}
{% endif %}
## Top patterns
{% for p in patterns %}- {{ p.field_name }}={{ p.field_value }}: successful {{ p.successful_ratio | percent }}% vs general {{ p.general_ratio | percent }}% (Lift: {{ p.lift | fixed2 }}x)
{% endfor %}
## Request
From these patterns produce:
1. formula: one sentence describing how to build a successful ad
2. insights: 3-5 actionable insights, each with a title and description
3. strategies: concrete strategies to apply to new ads, each with a title and description

Respond with JSON only, in this shape:
{"formula": "", "insights": [{"title": "", "description": ""}], "strategies": [{"title": "", "description": ""}], "confidence": 0.85}`

var (
	engineOnce sync.Once
	engine     *liquid.Engine
)

func promptEngine() *liquid.Engine {
	engineOnce.Do(func() {
		engine = liquid.NewEngine()
		// Ratio to percent with one decimal: {{ 0.4567 | percent }} -> 45.7
		engine.RegisterFilter("percent", func(v float64) string { return fmt.Sprintf("%.1f", v*100) })
		engine.RegisterFilter("fixed2", func(v float64) string { return fmt.Sprintf("%.2f", v) })
	})
	return engine
}

func render(src string, bindings map[string]any) (string, error) {
	tpl, err := promptEngine().ParseString(src)
	if err != nil {
		return "", fmt.Errorf("parse prompt: %w", err)
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}

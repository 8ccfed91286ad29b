package packets

import "github.com/Nixie-Tech-LLC/signance/internal/schedule"

// PlanResponse is what a screen plays, in order.
type PlanResponse struct {
	Date          string              `json:"date,omitempty"`
	Items         []schedule.PlanItem `json:"items"`
	TotalDuration int                 `json:"total_duration"`
}

func NewPlanResponse(date string, items []schedule.PlanItem) PlanResponse {
	if items == nil {
		items = []schedule.PlanItem{}
	}
	total := 0
	for _, it := range items {
		total += it.EffectiveDurationSeconds
	}
	return PlanResponse{Date: date, Items: items, TotalDuration: total}
}

// BusinessResponse is the branding a screen shows next to its content.
type BusinessResponse struct {
	Name string  `json:"name"`
	Logo *string `json:"logo"`
}

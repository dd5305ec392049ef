package crm

import "testing"

func TestValidDealStages(t *testing.T) {
	for _, stage := range []string{"new", "consultation", "booked", "done", "upsell"} {
		if !validDealStages[stage] {
			t.Errorf("stage %q should be valid", stage)
		}
	}
	for _, stage := range []string{"", "closed", "won", "NEW", "Upsell"} {
		if validDealStages[stage] {
			t.Errorf("stage %q should be rejected", stage)
		}
	}
}

package components

import "github.com/leapstack-labs/salesdesk/internal/api"

// PickerOptions builds the customer dropdown.
func PickerOptions(customers []api.Customer, selected int) []Option {
	out := make([]Option, 0, len(customers))
	for _, c := range customers {
		out = append(out, Option{ID: c.ID, Label: c.DisplayName(), Selected: c.ID == selected})
	}
	return out
}

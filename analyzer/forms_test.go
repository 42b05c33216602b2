package analyzer

import "testing"

func TestFieldConfidence(t *testing.T) {
	tests := []struct {
		name                                        string
		inputType, fieldName, id, placeholder, aria string
		wantAtLeast, wantBelow                      float64
	}{
		{
			name:        "type search",
			inputType:   "search",
			wantAtLeast: 0.6,
		},
		{
			name:        "known param name",
			inputType:   "text",
			fieldName:   "q",
			wantAtLeast: 0.5,
		},
		{
			name:        "search placeholder",
			inputType:   "text",
			fieldName:   "field1",
			placeholder: "Search the catalog",
			wantAtLeast: 0.3,
		},
		{
			name:      "hidden input rejected",
			inputType: "hidden",
			fieldName: "q",
			wantBelow: 0.01,
		},
		{
			name:      "checkbox rejected",
			inputType: "checkbox",
			fieldName: "search",
			wantBelow: 0.01,
		},
		{
			name:      "plain text input no signal",
			inputType: "text",
			fieldName: "email",
			wantBelow: 0.01,
		},
		{
			name:        "everything stacks but clamps at 1",
			inputType:   "search",
			fieldName:   "search",
			placeholder: "Search...",
			wantAtLeast: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldConfidence(tt.inputType, tt.fieldName, tt.id, tt.placeholder, tt.aria)
			if got < 0 || got > 1 {
				t.Fatalf("confidence %v out of [0,1]", got)
			}
			if tt.wantAtLeast > 0 && got < tt.wantAtLeast {
				t.Errorf("confidence = %v, want >= %v", got, tt.wantAtLeast)
			}
			if tt.wantBelow > 0 && got >= tt.wantBelow {
				t.Errorf("confidence = %v, want < %v", got, tt.wantBelow)
			}
		})
	}
}

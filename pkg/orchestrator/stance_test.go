package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStance(t *testing.T) {
	tests := []struct {
		message string
		want    Stance
	}{
		{"yes", StanceAffirmative},
		{"Yes!", StanceAffirmative},
		{"ok", StanceAffirmative},
		{"sounds good", StanceAffirmative},
		{"I agree", StanceAffirmative},
		{"replan", StanceAffirmative},
		{"no", StanceNegative},
		{"Nope.", StanceNegative},
		{"I disagree", StanceNegative},
		{"cancel that", StanceNegative},
		{"no, cheaper restaurants please", StanceNegative},
		{"ok but no", StanceNegative},
		{"what museum?", StanceNeither},
		{"", StanceNeither},
		{"now we are talking", StanceNeither},
		{"nothing to add", StanceNeither},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStance(tt.message), "message: %q", tt.message)
	}
}

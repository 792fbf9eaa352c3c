package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func targetPtr(t TargetType) *TargetType { return &t }

func TestScopeMatches(t *testing.T) {
	order := OrderContext{
		OrderType: TargetSubscription,
		TargetID:  "plan-1",
		ChannelID: "ch-1",
	}

	tests := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{
			name:  "all wildcards match anything",
			scope: Scope{},
			want:  true,
		},
		{
			name:  "matching channel",
			scope: Scope{ChannelID: strPtr("ch-1")},
			want:  true,
		},
		{
			name:  "wrong channel",
			scope: Scope{ChannelID: strPtr("ch-2")},
			want:  false,
		},
		{
			name:  "matching target type",
			scope: Scope{TargetType: targetPtr(TargetSubscription)},
			want:  true,
		},
		{
			name:  "wrong target type",
			scope: Scope{TargetType: targetPtr(TargetContent)},
			want:  false,
		},
		{
			name:  "matching target id",
			scope: Scope{TargetID: strPtr("plan-1")},
			want:  true,
		},
		{
			name:  "wrong target id",
			scope: Scope{TargetID: strPtr("plan-2")},
			want:  false,
		},
		{
			name: "all three constrained and matching",
			scope: Scope{
				ChannelID:  strPtr("ch-1"),
				TargetType: targetPtr(TargetSubscription),
				TargetID:   strPtr("plan-1"),
			},
			want: true,
		},
		{
			name: "two match, one does not",
			scope: Scope{
				ChannelID:  strPtr("ch-1"),
				TargetType: targetPtr(TargetSubscription),
				TargetID:   strPtr("plan-2"),
			},
			want: false,
		},
		{
			name: "target id wildcard within constrained type",
			scope: Scope{
				TargetType: targetPtr(TargetSubscription),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Matches(order))
		})
	}
}

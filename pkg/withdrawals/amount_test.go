package withdrawals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"celvest/pkg/celenium"
	"celvest/pkg/logger"
)

func TestWithdrawAmount(t *testing.T) {
	log := logger.NewNopLogger()

	tests := []struct {
		name   string
		events []celenium.Event
		want   int64
	}{
		{
			name:   "no events",
			events: nil,
			want:   0,
		},
		{
			name: "sums matching events",
			events: []celenium.Event{
				withdrawEvent("300utia"),
				withdrawEvent("200utia"),
			},
			want: 500,
		},
		{
			name: "ignores other event types",
			events: []celenium.Event{
				withdrawEvent("100utia"),
				{Type: "transfer", Data: celenium.EventData{Amount: "999utia"}},
				{Type: "delegate", Data: celenium.EventData{Amount: "50utia"}},
			},
			want: 100,
		},
		{
			name: "ignores other denominations",
			events: []celenium.Event{
				withdrawEvent("100utia"),
				withdrawEvent("999uatom"),
			},
			want: 100,
		},
		{
			name: "malformed amount counts as zero",
			events: []celenium.Event{
				withdrawEvent("not-a-numberutia"),
				withdrawEvent("25utia"),
			},
			want: 25,
		},
		{
			name: "empty amount counts as zero",
			events: []celenium.Event{
				withdrawEvent(""),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithdrawAmount(tt.events, "utia", log)
			assert.Equal(t, tt.want, got)
		})
	}
}

package withdrawals

import (
	"strconv"
	"strings"

	"celvest/pkg/celenium"
	"celvest/pkg/logger"
)

// WithdrawAmount sums the amounts of reward-withdrawal events carrying
// the given denomination. Events of other types, other denominations, or
// with amounts that fail to parse contribute zero; a malformed amount is
// logged and never aborts the transaction.
func WithdrawAmount(events []celenium.Event, denom string, log logger.Logger) int64 {
	var total int64

	for _, event := range events {
		if event.Type != celenium.EventTypeWithdrawRewards {
			continue
		}

		amount := event.Data.Amount
		if !strings.HasSuffix(amount, denom) {
			continue
		}

		value, err := strconv.ParseInt(strings.TrimSuffix(amount, denom), 10, 64)
		if err != nil {
			log.WarnWithFields("malformed event amount, counting as zero", map[string]interface{}{
				"amount": amount,
				"error":  err.Error(),
			})
			continue
		}

		total += value
	}

	return total
}

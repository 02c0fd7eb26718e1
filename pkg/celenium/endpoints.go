package celenium

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the public Celenium API for the Celestia chain
	DefaultBaseURL = "https://api.celenium.io/v1"

	// DefaultBatchSize is the page size used for paginated listings
	DefaultBatchSize = 100

	// MaxBatchSize is the largest page the API serves
	MaxBatchSize = 100
)

// AddressesURL constructs the URL for the paginated address listing
func AddressesURL(baseURL string, limit, offset int64) string {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))

	return fmt.Sprintf("%s/address?%s", baseURL, params.Encode())
}

// VestingsURL constructs the URL for an address's vesting schedule
func VestingsURL(baseURL, hash string) string {
	return fmt.Sprintf("%s/address/%s/vestings", baseURL, url.PathEscape(hash))
}

// TransactionsURL constructs the URL for an address's transaction listing,
// optionally filtered by message type
func TransactionsURL(baseURL, hash string, limit, offset int64, msgType string) string {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))
	if msgType != "" {
		params.Set("msg_type", msgType)
	}

	return fmt.Sprintf("%s/address/%s/txs?%s", baseURL, url.PathEscape(hash), params.Encode())
}

// EventsURL constructs the URL for a transaction's event listing
func EventsURL(baseURL, txHash string, limit int64) string {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))

	return fmt.Sprintf("%s/tx/%s/events?%s", baseURL, url.PathEscape(txHash), params.Encode())
}

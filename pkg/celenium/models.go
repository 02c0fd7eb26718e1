package celenium

// Address represents an address record from the Celenium address listing.
// The upstream returns more fields than this; only the hash is needed to
// drive the vesting lookups.
type Address struct {
	ID   int64  `json:"id"`
	Hash string `json:"hash"`
}

// VestingRecord represents a vesting schedule entry for an address.
// Records are passed through verbatim into the vested-address sink, so
// time fields stay as the raw strings the API returns.
type VestingRecord struct {
	ID        int64  `json:"id"`
	Amount    string `json:"amount"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Hash      string `json:"hash"`
	Height    int64  `json:"height"`
	Time      string `json:"time"`
	Type      string `json:"type"`
}

// Transaction represents a transaction record from the per-address
// transaction listing
type Transaction struct {
	ID            int64    `json:"id"`
	Height        int64    `json:"height"`
	Position      int64    `json:"position"`
	GasWanted     int64    `json:"gas_wanted"`
	GasUsed       int64    `json:"gas_used"`
	TimeoutHeight int64    `json:"timeout_height"`
	EventsCount   int64    `json:"events_count"`
	MessagesCount int64    `json:"messages_count"`
	Hash          string   `json:"hash"`
	Fee           string   `json:"fee"`
	Time          string   `json:"time"`
	MessageTypes  []string `json:"message_types"`
	Status        string   `json:"status"`
}

// Event represents a single event attached to a transaction
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the event payload. Upstream payloads vary by event
// type; only the amount matters for withdrawal aggregation, everything
// else is dropped at the decode boundary.
type EventData struct {
	Amount    string `json:"amount"`
	Delegator string `json:"delegator"`
	Validator string `json:"validator"`
}

// EventTypeWithdrawRewards is the event type emitted by reward
// withdrawals
const EventTypeWithdrawRewards = "withdraw_rewards"

// MsgTypeWithdrawReward is the message type filter for withdrawal
// transactions
const MsgTypeWithdrawReward = "MsgWithdrawDelegatorReward"

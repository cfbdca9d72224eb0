package chain

import (
	"encoding/json"
	"time"
)

// Response wraps a derived value with the chain height it was computed at.
type Response[T any] struct {
	Height string `json:"height"`
	Result T      `json:"result"`
}

// Coin is a native denom amount as the LCD returns it.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// TaxCap is one row of /treasury/tax_caps.
type TaxCap struct {
	Denom  string `json:"denom"`
	TaxCap string `json:"tax_cap"`
}

// Block is the subset of /blocks/{height} the bot reads.
type Block struct {
	Block struct {
		Header struct {
			Height string    `json:"height"`
			Time   time.Time `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

// TxPage is one page of the FCD transaction history endpoint. Entries are
// kept undecoded because their shape varies by message type.
type TxPage struct {
	Txs  []json.RawMessage `json:"txs"`
	Next json.RawMessage   `json:"next"`
}

// BlockTxs is one page of transactions included at a single height.
type BlockTxs struct {
	TxResponses []TxResponse `json:"tx_responses"`
	Pagination  struct {
		NextKey *string `json:"next_key"`
		Total   string  `json:"total"`
	} `json:"pagination"`
}

// TxResponse is a transaction result inside BlockTxs.
type TxResponse struct {
	Height    string          `json:"height"`
	TxHash    string          `json:"txhash"`
	RawLog    string          `json:"raw_log"`
	Logs      []TxLogEntry    `json:"logs"`
	GasWanted string          `json:"gas_wanted"`
	GasUsed   string          `json:"gas_used"`
	Timestamp time.Time       `json:"timestamp"`
	Tx        json.RawMessage `json:"tx"`
}

// TxLogEntry is the per-message log of a transaction.
type TxLogEntry struct {
	MsgIndex int     `json:"msg_index"`
	Events   []Event `json:"events"`
}

// Event is a typed list of key/value attributes emitted by a message.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FirstOfType returns the first event with the given type.
func FirstOfType(events []Event, typ string) (Event, bool) {
	for _, e := range events {
		if e.Type == typ {
			return e, true
		}
	}
	return Event{}, false
}

// Attr returns the first attribute value stored under key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

package txlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/numeric"
)

// errSkip marks an entry that is well formed but not what the scan wants.
var errSkip = errors.New("skip")

// fcdTx is the subset of an FCD history entry the scanner reads. Numeric
// fields stay raw since the FCD sends them quoted or bare depending on the
// field and version.
type fcdTx struct {
	Height    json.RawMessage `json:"height"`
	Timestamp string          `json:"timestamp"`
	GasWanted json.RawMessage `json:"gas_wanted"`
	GasUsed   json.RawMessage `json:"gas_used"`
	RawLog    json.RawMessage `json:"raw_log"`
	Logs      []struct {
		Events []chain.Event `json:"events"`
	} `json:"logs"`
	Tx struct {
		Value struct {
			Msg []struct {
				Value struct {
					Contract   string                     `json:"contract"`
					ExecuteMsg map[string]json.RawMessage `json:"execute_msg"`
				} `json:"value"`
			} `json:"msg"`
			Fee struct {
				Amount []struct {
					Denom  string          `json:"denom"`
					Amount json.RawMessage `json:"amount"`
				} `json:"amount"`
			} `json:"fee"`
		} `json:"value"`
	} `json:"tx"`
}

// extractTx turns a history entry into a TxLog when it is a single-message
// execution of action on contractAddr paid in feeDenom.
func extractTx(raw json.RawMessage, contractAddr string, action Action, feeDenom string) (TxLog, error) {
	var tx fcdTx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return TxLog{}, fmt.Errorf("decode tx: %w", err)
	}

	msgs := tx.Tx.Value.Msg
	if len(msgs) != 1 {
		return TxLog{}, errSkip
	}
	msg := msgs[0].Value
	if msg.Contract != contractAddr || !action.matches(msg.ExecuteMsg) {
		return TxLog{}, errSkip
	}

	if len(tx.Logs) == 0 {
		return TxLog{}, errors.New("no logs")
	}
	wasm, ok := chain.FirstOfType(tx.Logs[0].Events, "wasm")
	if !ok {
		return TxLog{}, errors.New("no wasm event")
	}
	rawAmount, ok := wasm.Attr(action.field)
	if !ok {
		return TxLog{}, fmt.Errorf("no %s attribute", action.field)
	}

	fees := tx.Tx.Value.Fee.Amount
	if len(fees) != 1 || fees[0].Denom != feeDenom {
		return TxLog{}, errSkip
	}

	var (
		rec TxLog
		err error
	)
	if rec.Height, err = numeric.ParseUint(string(tx.Height)); err != nil {
		return TxLog{}, fmt.Errorf("height: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, tx.Timestamp)
	if err != nil {
		return TxLog{}, fmt.Errorf("timestamp: %w", err)
	}
	rec.Timestamp = ts.Unix()
	if rec.GasWanted, err = numeric.ParseRaw(tx.GasWanted); err != nil {
		return TxLog{}, fmt.Errorf("gas_wanted: %w", err)
	}
	if rec.GasUsed, err = numeric.ParseRaw(tx.GasUsed); err != nil {
		return TxLog{}, fmt.Errorf("gas_used: %w", err)
	}
	if rec.Amount, err = numeric.Parse(rawAmount); err != nil {
		return TxLog{}, fmt.Errorf("%s: %w", action.field, err)
	}
	if rec.FeeAmount, err = numeric.ParseRaw(fees[0].Amount); err != nil {
		return TxLog{}, fmt.Errorf("fee amount: %w", err)
	}
	rec.FeeDenom = feeDenom
	rec.RawLog = rawString(tx.RawLog)
	return rec, nil
}

// Substrings a block's raw log must contain to be a stable deposit.
var depositMarkers = []string{"deposit_stable", "mint_amount", "deposit_amount"}

// extractDeposit reads the mint/deposit amounts of a stable deposit found at
// height.
func extractDeposit(tx chain.TxResponse, height uint64) (DepositStableLog, error) {
	for _, m := range depositMarkers {
		if !strings.Contains(tx.RawLog, m) {
			return DepositStableLog{}, errSkip
		}
	}
	if len(tx.Logs) == 0 {
		return DepositStableLog{}, errors.New("no logs")
	}
	wasm, ok := chain.FirstOfType(tx.Logs[0].Events, "wasm")
	if !ok {
		return DepositStableLog{}, errors.New("no wasm event")
	}
	rawMint, _ := wasm.Attr("mint_amount")
	rawDeposit, _ := wasm.Attr("deposit_amount")

	mint, err := numeric.Parse(rawMint)
	if err != nil {
		return DepositStableLog{}, fmt.Errorf("mint_amount: %w", err)
	}
	deposit, err := numeric.Parse(rawDeposit)
	if err != nil {
		return DepositStableLog{}, fmt.Errorf("deposit_amount: %w", err)
	}
	if mint.IsZero() {
		return DepositStableLog{}, errors.New("zero mint amount")
	}

	return DepositStableLog{
		Height:        height,
		Timestamp:     tx.Timestamp.Unix(),
		MintAmount:    mint,
		DepositAmount: deposit,
		ExchangeRate:  deposit.Div(mint),
	}, nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

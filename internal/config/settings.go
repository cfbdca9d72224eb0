package config

import (
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/requirement"
)

// Settings are the user's strategy switches and parameters. Parameters are
// fractions (0.35 is 35%) except the balances and fee, which are in UST.
type Settings struct {
	Flags requirement.Flags `json:"flags"`

	TriggerPercentage       decimal.Decimal `json:"trigger_percentage"`
	TargetPercentage        decimal.Decimal `json:"target_percentage"`
	BorrowPercentage        decimal.Decimal `json:"borrow_percentage"`
	GasAdjustmentPreference decimal.Decimal `json:"gas_adjustment_preference"`
	MinUstBalance           decimal.Decimal `json:"min_ust_balance"`
	UstBalancePreference    decimal.Decimal `json:"ust_balance_preference"`
	MaxTxFee                decimal.Decimal `json:"max_tx_fee"`
}

// Parameter returns the value a settings requirement key resolves to.
func (s Settings) Parameter(key string) (decimal.Decimal, bool) {
	switch key {
	case "trigger_percentage":
		return s.TriggerPercentage, true
	case "target_percentage":
		return s.TargetPercentage, true
	case "borrow_percentage":
		return s.BorrowPercentage, true
	case "gas_adjustment_preference":
		return s.GasAdjustmentPreference, true
	case "min_ust_balance":
		return s.MinUstBalance, true
	case "ust_balance_preference":
		return s.UstBalancePreference, true
	case "max_tx_fee":
		return s.MaxTxFee, true
	}
	return decimal.Zero, false
}

// ParameterKeys lists the keys Parameter answers.
func ParameterKeys() []string {
	return []string{
		"trigger_percentage",
		"target_percentage",
		"borrow_percentage",
		"gas_adjustment_preference",
		"min_ust_balance",
		"ust_balance_preference",
		"max_tx_fee",
	}
}

func loadSettings() Settings {
	return Settings{
		Flags: requirement.Flags{
			AutoStake:    envBool("AUTO_STAKE", false),
			AutoFarm:     envBool("AUTO_FARM", false),
			AutoRepay:    envBool("AUTO_REPAY", false),
			AutoBorrow:   envBool("AUTO_BORROW", false),
			MarketInfo:   envBool("MARKET_INFO", true),
			ProtocolInfo: envBool("PROTOCOL_INFO", true),
			AccountInfo:  envBool("ACCOUNT_INFO", false),
		},
		TriggerPercentage:       envDecimal("TRIGGER_PERCENTAGE", decimal.RequireFromString("0.85")),
		TargetPercentage:        envDecimal("TARGET_PERCENTAGE", decimal.RequireFromString("0.72")),
		BorrowPercentage:        envDecimal("BORROW_PERCENTAGE", decimal.RequireFromString("0.5")),
		GasAdjustmentPreference: envDecimal("GAS_ADJUSTMENT_PREFERENCE", decimal.RequireFromString("1.2")),
		MinUstBalance:           envDecimal("MIN_UST_BALANCE", decimal.NewFromInt(10)),
		UstBalancePreference:    envDecimal("UST_BALANCE_PREFERENCE", decimal.NewFromInt(20)),
		MaxTxFee:                envDecimal("MAX_TX_FEE", decimal.NewFromInt(5)),
	}
}

// Live holds the current settings. It is safe for concurrent use.
type Live struct {
	p atomic.Pointer[Settings]
}

func NewLive(s Settings) *Live {
	l := &Live{}
	l.Store(s)
	return l
}

func (l *Live) Load() Settings { return *l.p.Load() }

func (l *Live) Store(s Settings) { l.p.Store(&s) }

// Package requirement holds the table of data keys the bot can fetch and
// selects the subset needed by the strategies a user has enabled.
package requirement

import "time"

// Tag identifies a feature that depends on a requirement key.
type Tag string

const (
	TagMarket           Tag = "market"
	TagAnchor           Tag = "anchor"
	TagAccount          Tag = "anchor_account"
	TagAutoRepay        Tag = "anchor_auto_repay"
	TagAutoBorrow       Tag = "anchor_auto_borrow"
	TagAutoStake        Tag = "anchor_auto_stake"
	TagAutoStakeAirdrop Tag = "anchor_auto_stake_airdrops"
	TagAutoFarm         Tag = "anchor_auto_farm"
)

// Entry is one row of the catalog.
type Entry struct {
	Key       string        `json:"key"`
	Interval  time.Duration `json:"interval"`
	DependsOn []Tag         `json:"depends_on"`
}

// DependsOnAny reports whether the entry shares at least one tag with enabled.
func (e Entry) DependsOnAny(enabled map[Tag]struct{}) bool {
	for _, t := range e.DependsOn {
		if _, ok := enabled[t]; ok {
			return true
		}
	}
	return false
}

// A new block arrives roughly every 6s.
const (
	fast   = 10 * time.Second
	medium = time.Minute
	slow   = 10 * time.Minute
)

var (
	allStrategies = []Tag{TagAccount, TagAutoFarm, TagAutoStake, TagAutoStakeAirdrop, TagAutoRepay, TagAutoBorrow}
	txStrategies  = []Tag{TagAutoFarm, TagAutoStake, TagAutoStakeAirdrop, TagAutoRepay, TagAutoBorrow}
	feeStrategies = []Tag{TagAutoRepay, TagAutoBorrow, TagAutoFarm, TagAutoStake}
)

func tags(t ...Tag) []Tag { return t }

// Catalog returns the full requirement table in scheduling order.
func Catalog() []Entry {
	return []Entry{
		// settings
		{"trigger_percentage", fast, tags(TagAccount, TagAutoRepay)},
		{"target_percentage", fast, tags(TagAutoRepay, TagAutoBorrow)},
		{"borrow_percentage", fast, tags(TagAutoBorrow)},
		{"gas_adjustment_preference", fast, allStrategies},
		{"min_ust_balance", fast, allStrategies},
		{"ust_balance_preference", fast, tags(TagAutoRepay)},
		{"max_tx_fee", fast, txStrategies},

		// fees
		{"gas_fees_uusd", medium, append(tags(TagMarket, TagAnchor), allStrategies...)},
		{"tax_rate", medium, feeStrategies},
		{"tax_caps", medium, feeStrategies},

		{"terra_balances", fast, txStrategies},

		// market: core tokens
		{"core_swap uusd usdr", fast, tags(TagMarket)},
		{"core_swap usdr uluna", fast, tags(TagMarket)},
		{"core_swap uluna uusd", fast, tags(TagMarket)},

		// market: anchor tokens
		{"simulation anchorprotocol uluna terraswapblunaLunaPair", fast, tags(TagMarket, TagAccount)},
		{"state anchorprotocol bLunaHub", fast, tags(TagMarket, TagAccount)},
		{"simulation_cw20 anchorprotocol ANC terraswapAncUstPair", fast, tags(TagMarket, TagAccount, TagAutoFarm, TagAutoStake)},
		{"epoch_state anchorprotocol mmMarket", fast, tags(TagAnchor, TagMarket, TagAccount, TagAutoRepay)},

		// market: nexus tokens
		{"simulation_cw20 nexusprotocol nLunaToken Psi-nLuna_Pair", fast, tags(TagMarket)},
		{"simulation_cw20 nexusprotocol PsiToken Psi-UST_Pair", fast, tags(TagMarket)},

		// market: mirror tokens
		{"simulation_cw20 uusd mir", fast, tags(TagMarket)},
		{"simulation_cw20 uusd m_tsla", fast, tags(TagMarket)},
		{"simulation_cw20 uusd m_btc", fast, tags(TagMarket)},
		{"simulation_cw20 uusd m_eth", fast, tags(TagMarket)},
		{"simulation_cw20 uusd m_spy", fast, tags(TagMarket)},

		// anchor protocol
		{"state anchorprotocol mmMarket", fast, tags(TagAnchor, TagAccount)},
		{"api/v2/distribution-apy", fast, tags(TagAnchor, TagAccount, TagAutoFarm, TagAutoStake)},
		{"api/v2/gov-reward", fast, tags(TagAnchor, TagAccount, TagAutoStake)},
		{"config anchorprotocol mmInterestModel", fast, tags(TagAnchor, TagAccount)},

		// anchor protocol account
		{"anchor_airdrops", fast, tags(TagAutoStakeAirdrop)},
		{"borrow_limit", fast, tags(TagAccount, TagAutoRepay, TagAutoBorrow)},
		{"borrow_info", fast, tags(TagAccount, TagAutoFarm, TagAutoStake, TagAutoRepay, TagAutoBorrow)},
		{"balance", fast, tags(TagAccount, TagAutoRepay, TagAutoBorrow)},
		{"anc_balance", fast, tags(TagAccount, TagAutoStake)},
		{"staker", fast, tags(TagAccount, TagAutoStake)},
		{"blocks_per_year", slow, tags(TagMarket, TagAnchor, TagAccount)},
		{"earn_apy", slow, tags(TagAnchor, TagAccount)},
		{"anchor_protocol_whitelist", slow, tags(TagAccount)},

		// transaction history
		{"anchor_protocol_txs_claim_rewards", slow, tags(TagAnchor, TagAccount, TagAutoFarm, TagAutoStake)},
		{"anchor_protocol_txs_staking", slow, tags(TagAnchor, TagAccount, TagAutoStake)},
		{"anchor_protocol_txs_redeem_stable", slow, tags(TagAutoRepay)},
		{"anchor_protocol_txs_deposit_stable", slow, tags(TagAutoBorrow)},
		{"anchor_protocol_txs_borrow_stable", slow, tags(TagAutoBorrow)},
		{"anchor_protocol_txs_repay_stable", slow, tags(TagAutoRepay)},
		{"txs_provide_to_spec_anc_ust_vault", slow, tags(TagAutoFarm)},
		{"api/data?type=lpVault", slow, tags(TagAutoFarm)},
	}
}

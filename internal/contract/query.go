package contract

import (
	"encoding/json"
	"fmt"
)

// Known contracts. Each query constructor below is bound to the contract it
// is valid for, so an unsupported (query, contract) pair cannot be built.
var (
	AnchorMarket        = Ref{"anchorprotocol", "mmMarket"}
	AnchorOverseer      = Ref{"anchorprotocol", "mmOverseer"}
	AnchorInterestModel = Ref{"anchorprotocol", "mmInterestModel"}
	AnchorDistributor   = Ref{"anchorprotocol", "mmDistributor"}
	AnchorCollector     = Ref{"anchorprotocol", "collector"}
	AnchorGov           = Ref{"anchorprotocol", "gov"}
	AnchorAirdrop       = Ref{"anchorprotocol", "airdrop"}
	AnchorToken         = Ref{"anchorprotocol", "ANC"}
	AnchorATerra        = Ref{"anchorprotocol", "aTerra"}
	BLunaHub            = Ref{"anchorprotocol", "bLunaHub"}
	BLunaToken          = Ref{"anchorprotocol", "bLunaToken"}

	TerraswapBLunaLunaPair = Ref{"anchorprotocol", "terraswapblunaLunaPair"}
	TerraswapAncUstPair    = Ref{"anchorprotocol", "terraswapAncUstPair"}

	NexusNLunaToken   = Ref{"nexusprotocol", "nLunaToken"}
	NexusPsiToken     = Ref{"nexusprotocol", "PsiToken"}
	NexusPsiNLunaPair = Ref{"nexusprotocol", "Psi-nLuna_Pair"}
	NexusPsiUstPair   = Ref{"nexusprotocol", "Psi-UST_Pair"}

	TerraswapFactory = Ref{"terraswap", "factory"}
	AstroportFactory = Ref{"astroport", "factory"}

	MirrorOracle = Ref{"mirrorprotocol", "oracle"}
)

// Query is a smart contract store query addressed to a contract.
type Query struct {
	Target Ref
	Msg    any
}

// JSON renders the query message.
func (q Query) JSON() (string, error) {
	b, err := json.Marshal(q.Msg)
	if err != nil {
		return "", fmt.Errorf("encode query for %s: %w", q.Target, err)
	}
	return string(b), nil
}

type empty struct{}

// MarketState queries the money market's global state.
func MarketState() Query {
	return Query{AnchorMarket, map[string]empty{"state": {}}}
}

// MarketEpochState queries the aUST exchange rate and deposit supply.
func MarketEpochState() Query {
	return Query{AnchorMarket, map[string]empty{"epoch_state": {}}}
}

// HubState queries the bLuna hub's exchange rate and bonded amounts.
func HubState() Query {
	return Query{BLunaHub, map[string]empty{"state": {}}}
}

func InterestModelConfig() Query {
	return Query{AnchorInterestModel, map[string]empty{"config": {}}}
}

func CollectorConfig() Query {
	return Query{AnchorCollector, map[string]empty{"config": {}}}
}

// BorrowLimit asks the overseer how much borrower may borrow.
func BorrowLimit(borrower string) Query {
	return Query{AnchorOverseer, map[string]any{
		"borrow_limit": map[string]string{"borrower": borrower},
	}}
}

// BorrowerInfo asks the market for a borrower's loan and pending rewards.
// A block height makes the market report accrued interest.
func BorrowerInfo(borrower string) Query {
	return Query{AnchorMarket, map[string]any{
		"borrower_info": map[string]any{"borrower": borrower, "block_height": 1},
	}}
}

// Whitelist lists the overseer's accepted collaterals.
func Whitelist() Query {
	return Query{AnchorOverseer, map[string]empty{"whitelist": {}}}
}

// Staker queries ANC governance staking for address.
func Staker(address string) Query {
	return Query{AnchorGov, map[string]any{
		"staker": map[string]string{"address": address},
	}}
}

// AirdropIsClaimed asks whether address already claimed stage.
func AirdropIsClaimed(address string, stage uint8) Query {
	return Query{AnchorAirdrop, map[string]any{
		"is_claimed": map[string]any{"stage": stage, "address": address},
	}}
}

// Balance is a cw20 balance query against token.
func Balance(token Ref, address string) Query {
	return Query{token, map[string]any{
		"balance": map[string]string{"address": address},
	}}
}

// TokenInfo is a cw20 token_info query.
func TokenInfo(token Ref) Query {
	return Query{token, map[string]empty{"token_info": {}}}
}

// MirrorPrice queries the mirror oracle for an asset priced in quote.
func MirrorPrice(assetToken, quote string) Query {
	return Query{MirrorOracle, map[string]any{
		"price": map[string]string{"base_asset": assetToken, "quote_asset": quote},
	}}
}

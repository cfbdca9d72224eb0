package txlog

import (
	"encoding/json"
	"fmt"

	"github.com/web3-frozen/anchor-autopilot/internal/contract"
)

// Base64 payloads of cw20 "send" hooks.
//
// The match is an exact comparison against these literals. A contract that
// encodes the same hook with other field order, whitespace or parameters
// will not match.
const (
	stakeVotingTokensMsg = "eyJzdGFrZV92b3RpbmdfdG9rZW5zIjp7fX0=" // {"stake_voting_tokens":{}}
	redeemStableMsg      = "eyJyZWRlZW1fc3RhYmxlIjp7fX0="         // {"redeem_stable":{}}
)

// Action is a contract execution the scanner can recognise. It is either a
// direct execute message named after the action, or a cw20 send whose hook
// message equals a known payload.
type Action struct {
	name     string
	contract contract.Ref
	field    string
	sendMsg  string
}

var (
	ClaimRewards  = Action{name: "claim_rewards", contract: contract.AnchorMarket, field: "claim_amount"}
	Staking       = Action{name: "staking", contract: contract.AnchorToken, field: "amount", sendMsg: stakeVotingTokensMsg}
	RedeemStable  = Action{name: "redeem_stable", contract: contract.AnchorATerra, field: "redeem_amount", sendMsg: redeemStableMsg}
	DepositStable = Action{name: "deposit_stable", contract: contract.AnchorMarket, field: "deposit_amount"}
	RepayStable   = Action{name: "repay_stable", contract: contract.AnchorMarket, field: "repay_amount"}
	BorrowStable  = Action{name: "borrow_stable", contract: contract.AnchorMarket, field: "borrow_amount"}
)

// Actions lists every supported action.
func Actions() []Action {
	return []Action{ClaimRewards, Staking, RedeemStable, DepositStable, RepayStable, BorrowStable}
}

// ParseAction finds an action by name.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if a.name == name {
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("unknown action %q", name)
}

func (a Action) String() string { return a.name }

// Contract is the contract the action executes on.
func (a Action) Contract() contract.Ref { return a.contract }

// Field is the wasm attribute that carries the action's amount.
func (a Action) Field() string { return a.field }

// matches reports whether an execute message invokes the action.
func (a Action) matches(exec map[string]json.RawMessage) bool {
	if a.sendMsg == "" {
		_, ok := exec[a.name]
		return ok
	}
	raw, ok := exec["send"]
	if !ok {
		return false
	}
	var send struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &send); err != nil {
		return false
	}
	return send.Msg == a.sendMsg
}

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/chain"
	"github.com/web3-frozen/anchor-autopilot/internal/config"
	"github.com/web3-frozen/anchor-autopilot/internal/contract"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
	"github.com/web3-frozen/anchor-autopilot/internal/yield"
)

// ErrNoWallet is returned by account keys when no wallet is configured.
var ErrNoWallet = errors.New("wallet address not configured")

// Chain is the REST surface the bindings read from.
type Chain interface {
	GetJSON(ctx context.Context, rawURL string) (json.RawMessage, error)
	QueryContract(ctx context.Context, address, queryMsg string) (json.RawMessage, error)
	TaxRate(ctx context.Context) (*chain.Response[string], error)
	TaxCaps(ctx context.Context) (*chain.Response[[]chain.TaxCap], error)
	Balances(ctx context.Context, account string) (*chain.Response[[]chain.Coin], error)
	Swap(ctx context.Context, offerDenom, askDenom string, amount int64) (*chain.Response[chain.Coin], error)
	GasPrices(ctx context.Context) (map[string]string, error)
}

type Contracts interface {
	ResolveRef(ref contract.Ref) (string, error)
}

type Scanner interface {
	Scan(ctx context.Context, action txlog.Action) (*chain.Response[[]txlog.TxLog], error)
}

type Yield interface {
	EarnAPY(ctx context.Context) (*chain.Response[yield.APY], error)
	BlocksPerYear(ctx context.Context) (*chain.Response[yield.BlocksPerYear], error)
}

// Deps are the collaborators the bindings fetch through.
type Deps struct {
	Chain     Chain
	Contracts Contracts
	Scanner   Scanner
	Yield     Yield
	Settings  *config.Live

	Wallet      string
	StableDenom string
	ChainID     string
	AnchorAPI   string
	SpectrumAPI string
	AirdropAPI  string
}

// swapAmount is the offer size of market module swap quotes.
const swapAmount = 1_000_000

// Bind registers a function for every catalog key the bot can serve.
func Bind(r *Registry, d Deps) {
	b := binder{d}

	for _, key := range config.ParameterKeys() {
		r.Register(key, b.parameter(key))
	}

	r.Register("gas_fees_uusd", b.gasPrice)
	r.Register("tax_rate", func(ctx context.Context) (any, error) { return d.Chain.TaxRate(ctx) })
	r.Register("tax_caps", func(ctx context.Context) (any, error) { return d.Chain.TaxCaps(ctx) })
	r.Register("terra_balances", b.balances)

	for _, pair := range [][2]string{{"uusd", "usdr"}, {"usdr", "uluna"}, {"uluna", "uusd"}} {
		r.Register("core_swap "+pair[0]+" "+pair[1], b.coreSwap(pair[0], pair[1]))
	}

	r.Register("simulation anchorprotocol uluna terraswapblunaLunaPair",
		b.query(contract.Terraswap.Simulation(contract.TerraswapBLunaLunaPair, contract.Native("uluna"))))
	r.Register("state anchorprotocol bLunaHub", b.query(contract.HubState()))
	r.Register("simulation_cw20 anchorprotocol ANC terraswapAncUstPair",
		b.cw20Simulation(contract.TerraswapAncUstPair, contract.AnchorToken))
	r.Register("epoch_state anchorprotocol mmMarket", b.query(contract.MarketEpochState()))

	r.Register("simulation_cw20 nexusprotocol nLunaToken Psi-nLuna_Pair",
		b.cw20Simulation(contract.NexusPsiNLunaPair, contract.NexusNLunaToken))
	r.Register("simulation_cw20 nexusprotocol PsiToken Psi-UST_Pair",
		b.cw20Simulation(contract.NexusPsiUstPair, contract.NexusPsiToken))

	for _, m := range []contract.MirrorAsset{contract.MIR, contract.MTSLA, contract.MBTC, contract.METH, contract.MSPY} {
		r.Register("simulation_cw20 uusd "+m.String(), b.cw20Simulation(m.Pair(), m.Token()))
	}

	r.Register("state anchorprotocol mmMarket", b.query(contract.MarketState()))
	r.Register("api/v2/distribution-apy", b.api(d.AnchorAPI, "api/v2/distribution-apy"))
	r.Register("api/v2/gov-reward", b.api(d.AnchorAPI, "api/v2/gov-reward"))
	r.Register("config anchorprotocol mmInterestModel", b.query(contract.InterestModelConfig()))

	r.Register("anchor_airdrops", b.airdrops)
	r.Register("borrow_limit", b.walletQuery(contract.BorrowLimit))
	r.Register("borrow_info", b.walletQuery(contract.BorrowerInfo))
	r.Register("balance", b.walletQuery(func(w string) contract.Query { return contract.Balance(contract.AnchorATerra, w) }))
	r.Register("anc_balance", b.walletQuery(func(w string) contract.Query { return contract.Balance(contract.AnchorToken, w) }))
	r.Register("staker", b.walletQuery(contract.Staker))
	r.Register("blocks_per_year", func(ctx context.Context) (any, error) { return d.Yield.BlocksPerYear(ctx) })
	r.Register("earn_apy", func(ctx context.Context) (any, error) { return d.Yield.EarnAPY(ctx) })
	r.Register("anchor_protocol_whitelist", b.query(contract.Whitelist()))

	for _, a := range txlog.Actions() {
		r.Register("anchor_protocol_txs_"+a.String(), func(ctx context.Context) (any, error) {
			return d.Scanner.Scan(ctx, a)
		})
	}

	r.Register("api/data?type=lpVault", b.api(d.SpectrumAPI, "api/data?type=lpVault"))
}

type binder struct {
	Deps
}

func (b binder) parameter(key string) Func {
	return func(context.Context) (any, error) {
		v, _ := b.Settings.Load().Parameter(key)
		return v, nil
	}
}

func (b binder) gasPrice(ctx context.Context) (any, error) {
	prices, err := b.Chain.GasPrices(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := prices[b.StableDenom]
	if !ok {
		return nil, fmt.Errorf("no gas price for %s: %w", b.StableDenom, chain.ErrMalformedResponse)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("gas price %q: %w", raw, chain.ErrMalformedResponse)
	}
	return price, nil
}

func (b binder) balances(ctx context.Context) (any, error) {
	if b.Wallet == "" {
		return nil, ErrNoWallet
	}
	return b.Chain.Balances(ctx, b.Wallet)
}

func (b binder) coreSwap(offer, ask string) Func {
	return func(ctx context.Context) (any, error) {
		return b.Chain.Swap(ctx, offer, ask, swapAmount)
	}
}

// run resolves the query target, sends the query and decodes the
// {height, result} envelope.
func (b binder) run(ctx context.Context, q contract.Query) (any, error) {
	addr, err := b.Contracts.ResolveRef(q.Target)
	if err != nil {
		return nil, err
	}
	msg, err := q.JSON()
	if err != nil {
		return nil, err
	}
	body, err := b.Chain.QueryContract(ctx, addr, msg)
	if err != nil {
		return nil, err
	}
	var resp chain.Response[json.RawMessage]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", q.Target, chain.ErrMalformedResponse)
	}
	return &resp, nil
}

func (b binder) query(q contract.Query) Func {
	return func(ctx context.Context) (any, error) { return b.run(ctx, q) }
}

func (b binder) walletQuery(build func(wallet string) contract.Query) Func {
	return func(ctx context.Context) (any, error) {
		if b.Wallet == "" {
			return nil, ErrNoWallet
		}
		return b.run(ctx, build(b.Wallet))
	}
}

// cw20Simulation prices one unit of token against pair. The token address
// is resolved at fetch time so address book reloads take effect.
func (b binder) cw20Simulation(pair, token contract.Ref) Func {
	return func(ctx context.Context) (any, error) {
		addr, err := b.Contracts.ResolveRef(token)
		if err != nil {
			return nil, err
		}
		return b.run(ctx, contract.Terraswap.Simulation(pair, contract.Cw20(addr)))
	}
}

func (b binder) api(base, path string) Func {
	return func(ctx context.Context) (any, error) {
		return b.Chain.GetJSON(ctx, strings.TrimRight(base, "/")+"/"+path)
	}
}

func (b binder) airdrops(ctx context.Context) (any, error) {
	if b.Wallet == "" {
		return nil, ErrNoWallet
	}
	q := url.Values{}
	q.Set("address", b.Wallet)
	q.Set("chainId", b.ChainID)
	return b.Chain.GetJSON(ctx, strings.TrimRight(b.AirdropAPI, "/")+"/api/get?"+q.Encode())
}

package contract

import "fmt"

// Dex is one of the supported AMMs. The zero value is not a valid dex; use
// Terraswap, Astroport or ParseDex.
type Dex struct {
	name    string
	factory Ref
}

var (
	Terraswap = Dex{name: "terraswap", factory: TerraswapFactory}
	Astroport = Dex{name: "astroport", factory: AstroportFactory}
)

func (d Dex) String() string { return d.name }

// ParseDex maps a dex name to its Dex.
func ParseDex(name string) (Dex, error) {
	switch name {
	case Terraswap.name:
		return Terraswap, nil
	case Astroport.name:
		return Astroport, nil
	default:
		return Dex{}, fmt.Errorf("%q: %w", name, ErrUnknownDex)
	}
}

// AssetInfo is either a native denom or a cw20 token address.
type AssetInfo struct {
	NativeToken *NativeToken `json:"native_token,omitempty"`
	Token       *Token       `json:"token,omitempty"`
}

type NativeToken struct {
	Denom string `json:"denom"`
}

type Token struct {
	ContractAddr string `json:"contract_addr"`
}

func Native(denom string) AssetInfo { return AssetInfo{NativeToken: &NativeToken{Denom: denom}} }

func Cw20(addr string) AssetInfo { return AssetInfo{Token: &Token{ContractAddr: addr}} }

// SimulationAmount is the offer size used for price simulations (1 unit in
// micro denomination).
const SimulationAmount = "1000000"

type asset struct {
	Info   AssetInfo `json:"info"`
	Amount string    `json:"amount"`
}

// Simulation asks pair what it would return for SimulationAmount of offer.
func (d Dex) Simulation(pair Ref, offer AssetInfo) Query {
	return Query{pair, map[string]any{
		"simulation": map[string]any{
			"offer_asset": asset{Info: offer, Amount: SimulationAmount},
		},
	}}
}

// Pair asks the dex factory for the pair of two assets.
func (d Dex) Pair(a, b AssetInfo) Query {
	return Query{d.factory, map[string]any{
		"pair": map[string]any{"asset_infos": [2]AssetInfo{a, b}},
	}}
}

// Pairs pages through the dex factory's pairs.
func (d Dex) Pairs(startAfter *[2]AssetInfo, limit *uint32) Query {
	args := map[string]any{}
	if startAfter != nil {
		args["start_after"] = startAfter
	}
	if limit != nil {
		args["limit"] = *limit
	}
	return Query{d.factory, map[string]any{"pairs": args}}
}

// MirrorAsset is one of the mirrored assets the bot prices.
type MirrorAsset struct {
	symbol string
}

var (
	MIR   = MirrorAsset{"mir"}
	MTSLA = MirrorAsset{"m_tsla"}
	MBTC  = MirrorAsset{"m_btc"}
	METH  = MirrorAsset{"m_eth"}
	MSPY  = MirrorAsset{"m_spy"}
)

func (m MirrorAsset) String() string { return m.symbol }

// Token is the asset's cw20 contract.
func (m MirrorAsset) Token() Ref { return Ref{"mirrorprotocol", m.symbol + "Token"} }

// Pair is the asset's terraswap pair against UST.
func (m MirrorAsset) Pair() Ref { return Ref{"mirrorprotocol", m.symbol + "Pair"} }

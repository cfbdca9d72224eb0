package contract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBookResolve(t *testing.T) {
	b := NewBook()
	addr, err := b.Resolve("anchorprotocol", "mmMarket")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if addr != "terra1sepfj7s0aeg5967uxnfk4thzlerrsktkpelm5s" {
		t.Errorf("mmMarket = %q", addr)
	}

	if _, err := b.Resolve("anchorprotocol", "nope"); !errors.Is(err, ErrUnknownContract) {
		t.Errorf("unknown contract error = %v, want ErrUnknownContract", err)
	}
}

func TestBookLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.yaml")
	data := []byte(`contracts:
  - protocol: mirrorprotocol
    name: m_tslaPair
    address: terra1pair
  - protocol: anchorprotocol
    name: mmMarket
    address: terra1override
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	b := NewBook()
	if err := b.LoadFile(path); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if addr, _ := b.ResolveRef(MTSLA.Pair()); addr != "terra1pair" {
		t.Errorf("m_tslaPair = %q, want terra1pair", addr)
	}
	if addr, _ := b.ResolveRef(AnchorMarket); addr != "terra1override" {
		t.Errorf("mmMarket = %q, want terra1override", addr)
	}
}

func TestBookLoadFileIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.yaml")
	if err := os.WriteFile(path, []byte("contracts:\n  - protocol: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewBook().LoadFile(path); err == nil {
		t.Error("expected error for incomplete entry")
	}
}

func TestParseDex(t *testing.T) {
	tests := []struct {
		name string
		want Dex
		err  error
	}{
		{"terraswap", Terraswap, nil},
		{"astroport", Astroport, nil},
		{"loop", Dex{}, ErrUnknownDex},
	}
	for _, tt := range tests {
		got, err := ParseDex(tt.name)
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseDex(%q) error = %v, want %v", tt.name, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseDex(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestQueryJSON(t *testing.T) {
	tests := []struct {
		name   string
		query  Query
		target Ref
		want   string
	}{
		{"market state", MarketState(), AnchorMarket, `{"state":{}}`},
		{"epoch state", MarketEpochState(), AnchorMarket, `{"epoch_state":{}}`},
		{"hub state", HubState(), BLunaHub, `{"state":{}}`},
		{"interest model", InterestModelConfig(), AnchorInterestModel, `{"config":{}}`},
		{"borrow limit", BorrowLimit("terra1me"), AnchorOverseer, `{"borrow_limit":{"borrower":"terra1me"}}`},
		{"borrower info", BorrowerInfo("terra1me"), AnchorMarket, `{"borrower_info":{"block_height":1,"borrower":"terra1me"}}`},
		{"staker", Staker("terra1me"), AnchorGov, `{"staker":{"address":"terra1me"}}`},
		{"aust balance", Balance(AnchorATerra, "terra1me"), AnchorATerra, `{"balance":{"address":"terra1me"}}`},
		{"airdrop", AirdropIsClaimed("terra1me", 3), AnchorAirdrop, `{"is_claimed":{"address":"terra1me","stage":3}}`},
		{"whitelist", Whitelist(), AnchorOverseer, `{"whitelist":{}}`},
		{
			"native simulation",
			Terraswap.Simulation(TerraswapBLunaLunaPair, Native("uluna")),
			TerraswapBLunaLunaPair,
			`{"simulation":{"offer_asset":{"info":{"native_token":{"denom":"uluna"}},"amount":"1000000"}}}`,
		},
		{
			"cw20 simulation",
			Astroport.Simulation(TerraswapAncUstPair, Cw20("terra1anc")),
			TerraswapAncUstPair,
			`{"simulation":{"offer_asset":{"info":{"token":{"contract_addr":"terra1anc"}},"amount":"1000000"}}}`,
		},
		{
			"factory pair",
			Terraswap.Pair(Native("uusd"), Cw20("terra1anc")),
			TerraswapFactory,
			`{"pair":{"asset_infos":[{"native_token":{"denom":"uusd"}},{"token":{"contract_addr":"terra1anc"}}]}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.JSON()
			if err != nil {
				t.Fatalf("JSON error: %v", err)
			}
			if got != tt.want {
				t.Errorf("JSON() = %s, want %s", got, tt.want)
			}
			if tt.query.Target != tt.target {
				t.Errorf("Target = %v, want %v", tt.query.Target, tt.target)
			}
		})
	}
}

func TestMirrorAssetRefs(t *testing.T) {
	if got := MSPY.Token(); got != (Ref{"mirrorprotocol", "m_spyToken"}) {
		t.Errorf("MSPY.Token() = %v", got)
	}
	if got := MIR.Pair(); got != (Ref{"mirrorprotocol", "mirPair"}) {
		t.Errorf("MIR.Pair() = %v", got)
	}
}

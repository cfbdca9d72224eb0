// Package contract names the smart contracts the bot queries, resolves them
// to chain addresses and builds their query messages.
package contract

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownContract = errors.New("unknown contract")
	ErrUnknownDex      = errors.New("unknown dex")
)

// Ref identifies a contract by protocol and contract name, e.g.
// {"anchorprotocol", "mmMarket"}.
type Ref struct {
	Protocol string `yaml:"protocol"`
	Name     string `yaml:"name"`
}

func (r Ref) String() string { return r.Protocol + "/" + r.Name }

// Resolver maps a contract reference to its chain address.
type Resolver interface {
	Resolve(protocol, name string) (string, error)
}

// Book is an in-memory address book. It is safe for concurrent reads and
// writes.
type Book struct {
	mu    sync.RWMutex
	addrs map[Ref]string
}

// NewBook returns a book seeded with the mainnet addresses the bot needs.
func NewBook() *Book {
	b := &Book{addrs: make(map[Ref]string, len(mainnet))}
	for ref, addr := range mainnet {
		b.addrs[ref] = addr
	}
	return b
}

// Set adds or replaces an address.
func (b *Book) Set(ref Ref, addr string) {
	b.mu.Lock()
	b.addrs[ref] = addr
	b.mu.Unlock()
}

// Resolve implements Resolver.
func (b *Book) Resolve(protocol, name string) (string, error) {
	b.mu.RLock()
	addr, ok := b.addrs[Ref{Protocol: protocol, Name: name}]
	b.mu.RUnlock()
	if !ok || addr == "" {
		return "", fmt.Errorf("%s/%s: %w", protocol, name, ErrUnknownContract)
	}
	return addr, nil
}

// ResolveRef is Resolve for a Ref.
func (b *Book) ResolveRef(ref Ref) (string, error) {
	return b.Resolve(ref.Protocol, ref.Name)
}

type bookFile struct {
	Contracts []struct {
		Ref     `yaml:",inline"`
		Address string `yaml:"address"`
	} `yaml:"contracts"`
}

// LoadFile merges the addresses listed in a YAML file into the book:
//
//	contracts:
//	  - protocol: mirrorprotocol
//	    name: m_tslaPair
//	    address: terra1...
func (b *Book) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read address book: %w", err)
	}
	var f bookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse address book %s: %w", path, err)
	}
	for i, c := range f.Contracts {
		if c.Protocol == "" || c.Name == "" || c.Address == "" {
			return fmt.Errorf("address book %s: entry %d is incomplete", path, i)
		}
		b.Set(c.Ref, c.Address)
	}
	return nil
}

var mainnet = map[Ref]string{
	AnchorMarket:           "terra1sepfj7s0aeg5967uxnfk4thzlerrsktkpelm5s",
	AnchorOverseer:         "terra1tmnqgvg567ypvsvk6rwsga3srp7e3lg6u0elp8",
	AnchorInterestModel:    "terra1kq8zzq5hufas9t0kjsjc62t2kucfnx8txf547n",
	AnchorDistributor:      "terra1mxf7d5updqxfgvchd7lv6575ehhm8qfdttuqzz",
	AnchorCollector:        "terra14ku9pgw5ld90dexlyju02u4rn6frheexr5f96h",
	AnchorGov:              "terra1f32xyep306hhcxxxf7mlyh0ucggc00rm2s9da5",
	AnchorAirdrop:          "terra146ahqn6d3qgdvmj8cj96hh03dzmeedhsf0kxqm",
	AnchorToken:            "terra14z56l0fp2lsf86zy3hty2z47ezkhnthtr9yq76",
	AnchorATerra:           "terra1hzh9vpxhsk8253se0vv5jj6etdvxu3nv8z07zu",
	BLunaHub:               "terra1mtwph2juhj0rvjz7dy92gvl6xvukaxu8rfv8ts",
	BLunaToken:             "terra1kc87mu460fwkqte29rquh4hc20m54fxwtsx7gp",
	TerraswapBLunaLunaPair: "terra1jxazgm67et0ce260kvrpfxm3ar8ps6pyc9dg7r",
	TerraswapAncUstPair:    "terra1gm5p3ner9x9xpwugn9sp6gvhd0lwrtkyrecdn3",
	TerraswapFactory:       "terra1ulgw0td86nvs4wtpsc80thv6xelk76ut7a7apj",
	AstroportFactory:       "terra1fnywlw4edny3vw44x04xd67uzkdqluymgreu7g",
	MirrorOracle:           "terra1t6xe0txzywdg85n6k8c960cuwgh6l8esw6lau9",
}

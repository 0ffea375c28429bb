// Package catalog lists the Cosmos Hub DeFi protocols shown on the dashboard.
package catalog

import (
	"sort"

	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// Category groups protocols into dashboard tabs.
type Category string

const (
	Staking       Category = "staking"
	LiquidStaking Category = "liquid-staking"
	Liquidity     Category = "liquidity"
	Lending       Category = "lending"
	Perpetuals    Category = "perpetuals"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Staking, LiquidStaking, Liquidity, Lending, Perpetuals}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories() {
		if k == c {
			return true
		}
	}
	return false
}

// Protocol is one dashboard entry.
type Protocol struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    Category          `json:"category"`
	Chain       string            `json:"chain"`
	Token       string            `json:"token"`
	URL         string            `json:"url"`
	Description string            `json:"description"`
	Source      string            `json:"source"`               // monitor source name
	LlamaSlug   string            `json:"llama_slug,omitempty"` // DefiLlama TVL slug
	Compounding yield.Compounding `json:"-"`
	// History is true when a snapshot history file is published for it.
	History bool `json:"history"`
}

var protocols = []Protocol{
	{
		ID: "cosmoshub", Name: "Cosmos Hub Staking", Category: Staking, Chain: "Cosmos Hub", Token: "ATOM",
		URL:         "https://wallet.keplr.app/chains/cosmos-hub",
		Description: "Native ATOM delegation to Cosmos Hub validators.",
		Source:      "hub", Compounding: yield.Daily,
	},
	{
		ID: "stride", Name: "Stride stATOM", Category: LiquidStaking, Chain: "Stride", Token: "stATOM",
		URL:         "https://app.stride.zone",
		Description: "Liquid staked ATOM with auto-compounding redemption rate.",
		Source:      "stride", LlamaSlug: "stride", Compounding: yield.Daily, History: true,
	},
	{
		ID: "quicksilver", Name: "Quicksilver qATOM", Category: LiquidStaking, Chain: "Quicksilver", Token: "qATOM",
		URL:         "https://app.quicksilver.zone",
		Description: "Liquid staked ATOM with governance-preserving delegation.",
		Source:      "quicksilver", LlamaSlug: "quicksilver", Compounding: yield.Daily, History: true,
	},
	{
		ID: "pstake", Name: "pSTAKE stkATOM", Category: LiquidStaking, Chain: "Persistence", Token: "stkATOM",
		URL:         "https://app.pstake.finance/cosmos/stake",
		Description: "Liquid staked ATOM issued on Persistence.",
		Source:      "pstake", LlamaSlug: "pstake-finance", Compounding: yield.Daily, History: true,
	},
	{
		ID: "drop", Name: "Drop dATOM", Category: LiquidStaking, Chain: "Neutron", Token: "dATOM",
		URL:         "https://app.drop.money",
		Description: "Liquid staked ATOM on Neutron.",
		Source:      "drop", LlamaSlug: "drop", Compounding: yield.Daily, History: true,
	},
	{
		ID: "astroport", Name: "Astroport ATOM pools", Category: Liquidity, Chain: "Neutron", Token: "ATOM",
		URL:         "https://app.astroport.fi/pools",
		Description: "ATOM liquidity pools on Astroport (Neutron).",
		Source:      "astroport", LlamaSlug: "astroport", Compounding: yield.Daily,
	},
	{
		ID: "osmosis", Name: "Osmosis ATOM pools", Category: Liquidity, Chain: "Osmosis", Token: "ATOM",
		URL:         "https://app.osmosis.zone/pools",
		Description: "ATOM liquidity pools on Osmosis.",
		Source:      "osmosis", LlamaSlug: "osmosis-dex", Compounding: yield.Daily,
	},
	{
		ID: "whitewhale", Name: "White Whale ATOM pools", Category: Liquidity, Chain: "Migaloo", Token: "ATOM",
		URL:         "https://app.whitewhale.money/migaloo/pools",
		Description: "ATOM pools on White Whale; APR read from the web app.",
		Source:      "pageapr", Compounding: yield.Daily,
	},
	{
		ID: "mars", Name: "Mars Red Bank ATOM", Category: Lending, Chain: "Neutron", Token: "ATOM",
		URL:         "https://app.marsprotocol.io/neutron/lend",
		Description: "ATOM lending market on Mars Protocol.",
		Source:      "mars", LlamaSlug: "mars-lend", Compounding: yield.Continuous,
	},
	{
		ID: "levana", Name: "Levana ATOM perps", Category: Perpetuals, Chain: "Osmosis", Token: "ATOM",
		URL:         "https://trade.levana.finance",
		Description: "ATOM_USD perpetual swaps; LP yield and hourly funding.",
		Source:      "levana", LlamaSlug: "levana-perps", Compounding: yield.Hourly,
	},
}

// All returns every protocol sorted by category order, then name.
func All() []Protocol {
	out := make([]Protocol, len(protocols))
	copy(out, protocols)
	order := make(map[Category]int)
	for i, c := range Categories() {
		order[c] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order[out[i].Category] != order[out[j].Category] {
			return order[out[i].Category] < order[out[j].Category]
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ByID returns the protocol with the given ID.
func ByID(id string) (Protocol, bool) {
	for _, p := range protocols {
		if p.ID == id {
			return p, true
		}
	}
	return Protocol{}, false
}

// ByCategory returns the protocols in c, in All order.
func ByCategory(c Category) []Protocol {
	var out []Protocol
	for _, p := range All() {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// WithHistory returns the protocols that publish snapshot history.
func WithHistory() []Protocol {
	var out []Protocol
	for _, p := range All() {
		if p.History {
			out = append(out, p)
		}
	}
	return out
}

// BySource returns the protocol backed by the named monitor source.
func BySource(source string) (Protocol, bool) {
	for _, p := range protocols {
		if p.Source == source {
			return p, true
		}
	}
	return Protocol{}, false
}

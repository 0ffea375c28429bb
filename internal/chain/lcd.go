// Package chain is a small read-only client for the Cosmos SDK LCD (REST)
// gateway.
package chain

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// StakeDenom is the Cosmos Hub staking denom and its display exponent.
const (
	StakeDenom    = "uatom"
	StakeExponent = 6
)

// LCD queries a Cosmos SDK REST endpoint.
type LCD struct {
	baseURL string
	client  *fetch.Client
}

func NewLCD(baseURL string, client *fetch.Client) *LCD {
	return &LCD{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// BaseURL returns the configured endpoint.
func (l *LCD) BaseURL() string { return l.baseURL }

func get[T any](ctx context.Context, l *LCD, path string) (T, error) {
	return fetch.GetJSON[T](ctx, l.client, l.baseURL+path)
}

// Inflation returns the current annual inflation rate (0..1).
func (l *LCD) Inflation(ctx context.Context) (float64, error) {
	resp, err := get[struct {
		Inflation string `json:"inflation"`
	}](ctx, l, "/cosmos/mint/v1beta1/inflation")
	if err != nil {
		return 0, fmt.Errorf("inflation: %w", err)
	}
	return yield.ParseDecFloat(resp.Inflation)
}

// Pool is the staking module pool in display units.
type Pool struct {
	Bonded    float64
	NotBonded float64
}

func (l *LCD) StakingPool(ctx context.Context) (Pool, error) {
	resp, err := get[struct {
		Pool struct {
			NotBondedTokens string `json:"not_bonded_tokens"`
			BondedTokens    string `json:"bonded_tokens"`
		} `json:"pool"`
	}](ctx, l, "/cosmos/staking/v1beta1/pool")
	if err != nil {
		return Pool{}, fmt.Errorf("staking pool: %w", err)
	}
	bonded, err := yield.MicroToUnit(resp.Pool.BondedTokens, StakeExponent)
	if err != nil {
		return Pool{}, err
	}
	notBonded, err := yield.MicroToUnit(resp.Pool.NotBondedTokens, StakeExponent)
	if err != nil {
		return Pool{}, err
	}
	return Pool{Bonded: bonded, NotBonded: notBonded}, nil
}

// DistributionParams are the distribution module parameters.
type DistributionParams struct {
	CommunityTax        float64
	BaseProposerReward  float64
	BonusProposerReward float64
}

func (l *LCD) DistributionParams(ctx context.Context) (DistributionParams, error) {
	resp, err := get[struct {
		Params struct {
			CommunityTax        string `json:"community_tax"`
			BaseProposerReward  string `json:"base_proposer_reward"`
			BonusProposerReward string `json:"bonus_proposer_reward"`
		} `json:"params"`
	}](ctx, l, "/cosmos/distribution/v1beta1/params")
	if err != nil {
		return DistributionParams{}, fmt.Errorf("distribution params: %w", err)
	}
	var out DistributionParams
	err = parseDecs([]decField{
		{resp.Params.CommunityTax, &out.CommunityTax},
		{resp.Params.BaseProposerReward, &out.BaseProposerReward},
		{resp.Params.BonusProposerReward, &out.BonusProposerReward},
	})
	if err != nil {
		return DistributionParams{}, fmt.Errorf("distribution params: %w", err)
	}
	return out, nil
}

// CommunityTax returns the distribution module community tax (0..1).
func (l *LCD) CommunityTax(ctx context.Context) (float64, error) {
	p, err := l.DistributionParams(ctx)
	if err != nil {
		return 0, err
	}
	return p.CommunityTax, nil
}

// MintParams are the mint module parameters.
type MintParams struct {
	MintDenom     string
	InflationMax  float64
	InflationMin  float64
	GoalBonded    float64
	BlocksPerYear float64
}

func (l *LCD) MintParams(ctx context.Context) (MintParams, error) {
	resp, err := get[struct {
		Params struct {
			MintDenom     string `json:"mint_denom"`
			InflationMax  string `json:"inflation_max"`
			InflationMin  string `json:"inflation_min"`
			GoalBonded    string `json:"goal_bonded"`
			BlocksPerYear string `json:"blocks_per_year"`
		} `json:"params"`
	}](ctx, l, "/cosmos/mint/v1beta1/params")
	if err != nil {
		return MintParams{}, fmt.Errorf("mint params: %w", err)
	}
	out := MintParams{MintDenom: resp.Params.MintDenom}
	err = parseDecs([]decField{
		{resp.Params.InflationMax, &out.InflationMax},
		{resp.Params.InflationMin, &out.InflationMin},
		{resp.Params.GoalBonded, &out.GoalBonded},
		{resp.Params.BlocksPerYear, &out.BlocksPerYear},
	})
	if err != nil {
		return MintParams{}, fmt.Errorf("mint params: %w", err)
	}
	return out, nil
}

// BlocksPerYear returns the mint module's blocks_per_year parameter.
func (l *LCD) BlocksPerYear(ctx context.Context) (float64, error) {
	p, err := l.MintParams(ctx)
	if err != nil {
		return 0, err
	}
	return p.BlocksPerYear, nil
}

type decField struct {
	raw string
	dst *float64
}

// parseDecs parses each non-empty decimal string into its destination.
func parseDecs(fields []decField) error {
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := yield.ParseDecFloat(f.raw)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

// Supply returns the total supply of denom in display units.
func (l *LCD) Supply(ctx context.Context, denom string, exponent int32) (float64, error) {
	resp, err := get[struct {
		Amount struct {
			Amount string `json:"amount"`
		} `json:"amount"`
	}](ctx, l, "/cosmos/bank/v1beta1/supply/by_denom?denom="+url.QueryEscape(denom))
	if err != nil {
		return 0, fmt.Errorf("supply %s: %w", denom, err)
	}
	return yield.MicroToUnit(resp.Amount.Amount, exponent)
}

// Block is a height/time pair.
type Block struct {
	Height int64
	Time   time.Time
}

type blockResponse struct {
	Block struct {
		Header struct {
			Height string    `json:"height"`
			Time   time.Time `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

func (r blockResponse) toBlock() (Block, error) {
	var h int64
	if _, err := fmt.Sscanf(r.Block.Header.Height, "%d", &h); err != nil {
		return Block{}, fmt.Errorf("parse height %q: %w", r.Block.Header.Height, err)
	}
	return Block{Height: h, Time: r.Block.Header.Time}, nil
}

// LatestBlock returns the newest block header.
func (l *LCD) LatestBlock(ctx context.Context) (Block, error) {
	resp, err := get[blockResponse](ctx, l, "/cosmos/base/tendermint/v1beta1/blocks/latest")
	if err != nil {
		return Block{}, fmt.Errorf("latest block: %w", err)
	}
	return resp.toBlock()
}

// BlockAt returns the block header at height.
func (l *LCD) BlockAt(ctx context.Context, height int64) (Block, error) {
	resp, err := get[blockResponse](ctx, l, fmt.Sprintf("/cosmos/base/tendermint/v1beta1/blocks/%d", height))
	if err != nil {
		return Block{}, fmt.Errorf("block %d: %w", height, err)
	}
	return resp.toBlock()
}

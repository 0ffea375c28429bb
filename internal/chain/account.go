package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

// ErrInvalidAddress is returned by ValidateAddress.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that addr is a bech32 address with the given prefix.
func ValidateAddress(addr, prefix string) error {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if hrp != prefix {
		return fmt.Errorf("%w: prefix %q, want %q", ErrInvalidAddress, hrp, prefix)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidAddress)
	}
	return nil
}

// Coin is an amount of a denom. Amount is in display units for the staking
// denom and base units for everything else.
type Coin struct {
	Denom  string  `json:"denom"`
	Amount float64 `json:"amount"`
}

type rawCoin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func (c rawCoin) toCoin() (Coin, error) {
	exp := int32(0)
	if c.Denom == StakeDenom {
		exp = StakeExponent
	}
	amt, err := yield.MicroToUnit(c.Amount, exp)
	if err != nil {
		return Coin{}, err
	}
	return Coin{Denom: c.Denom, Amount: amt}, nil
}

func toCoins(raw []rawCoin) ([]Coin, error) {
	out := make([]Coin, 0, len(raw))
	for _, r := range raw {
		c, err := r.toCoin()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Balances returns the bank balances of addr.
func (l *LCD) Balances(ctx context.Context, addr string) ([]Coin, error) {
	resp, err := get[struct {
		Balances []rawCoin `json:"balances"`
	}](ctx, l, "/cosmos/bank/v1beta1/balances/"+url.PathEscape(addr))
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	return toCoins(resp.Balances)
}

// Delegation is a bonded position with one validator.
type Delegation struct {
	Validator string  `json:"validator"`
	Amount    float64 `json:"amount"`
}

// Delegations returns the staking delegations of addr.
func (l *LCD) Delegations(ctx context.Context, addr string) ([]Delegation, error) {
	resp, err := get[struct {
		DelegationResponses []struct {
			Delegation struct {
				ValidatorAddress string `json:"validator_address"`
			} `json:"delegation"`
			Balance rawCoin `json:"balance"`
		} `json:"delegation_responses"`
	}](ctx, l, "/cosmos/staking/v1beta1/delegations/"+url.PathEscape(addr))
	if err != nil {
		return nil, fmt.Errorf("delegations: %w", err)
	}

	out := make([]Delegation, 0, len(resp.DelegationResponses))
	for _, d := range resp.DelegationResponses {
		c, err := d.Balance.toCoin()
		if err != nil {
			return nil, err
		}
		out = append(out, Delegation{Validator: d.Delegation.ValidatorAddress, Amount: c.Amount})
	}
	return out, nil
}

// Rewards returns the total pending staking rewards of addr.
func (l *LCD) Rewards(ctx context.Context, addr string) ([]Coin, error) {
	resp, err := get[struct {
		Total []rawCoin `json:"total"`
	}](ctx, l, "/cosmos/distribution/v1beta1/delegators/"+url.PathEscape(addr)+"/rewards")
	if err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}
	return toCoins(resp.Total)
}

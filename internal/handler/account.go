package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/web3-frozen/cosmos-defi/internal/chain"
	"golang.org/x/sync/errgroup"
)

// AccountPrefix is the bech32 prefix of Cosmos Hub accounts.
const AccountPrefix = "cosmos"

// AccountReader is the LCD subset used by the account view.
type AccountReader interface {
	Balances(ctx context.Context, addr string) ([]chain.Coin, error)
	Delegations(ctx context.Context, addr string) ([]chain.Delegation, error)
	Rewards(ctx context.Context, addr string) ([]chain.Coin, error)
}

type accountResponse struct {
	Address        string             `json:"address"`
	Balances       []chain.Coin       `json:"balances"`
	Delegations    []chain.Delegation `json:"delegations"`
	Rewards        []chain.Coin       `json:"rewards"`
	TotalDelegated float64            `json:"total_delegated"`
}

// Account returns the read-only wallet view of a connected address.
func Account(lcd AccountReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := chi.URLParam(r, "address")
		if err := chain.ValidateAddress(addr, AccountPrefix); err != nil {
			writeError(w, http.StatusBadRequest, "invalid cosmos address")
			return
		}

		resp := accountResponse{Address: addr}
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) {
			resp.Balances, err = lcd.Balances(ctx, addr)
			return err
		})
		g.Go(func() (err error) {
			resp.Delegations, err = lcd.Delegations(ctx, addr)
			return err
		})
		g.Go(func() (err error) {
			resp.Rewards, err = lcd.Rewards(ctx, addr)
			return err
		})
		if err := g.Wait(); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("account lookup failed", "address", addr, "error", err)
			}
			writeError(w, http.StatusBadGateway, "failed to query chain")
			return
		}

		for _, d := range resp.Delegations {
			resp.TotalDelegated += d.Amount
		}
		if resp.Balances == nil {
			resp.Balances = []chain.Coin{}
		}
		if resp.Delegations == nil {
			resp.Delegations = []chain.Delegation{}
		}
		if resp.Rewards == nil {
			resp.Rewards = []chain.Coin{}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

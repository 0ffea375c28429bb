package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/web3-frozen/cosmos-defi/internal/chain"
)

type fakeAccount struct {
	err error
}

func (f fakeAccount) Balances(ctx context.Context, addr string) ([]chain.Coin, error) {
	return []chain.Coin{{Denom: "uatom", Amount: 12.5}}, nil
}

func (f fakeAccount) Delegations(ctx context.Context, addr string) ([]chain.Delegation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []chain.Delegation{
		{Validator: "cosmosvaloper1a", Amount: 100},
		{Validator: "cosmosvaloper1b", Amount: 50.5},
	}, nil
}

func (f fakeAccount) Rewards(ctx context.Context, addr string) ([]chain.Coin, error) {
	return nil, nil
}

func encodeAddress(t *testing.T, hrp string) string {
	t.Helper()
	data, err := bech32.ConvertBits(make([]byte, 20), 8, 5, true)
	if err != nil {
		t.Fatalf("ConvertBits: %v", err)
	}
	addr, err := bech32.Encode(hrp, data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return addr
}

func TestAccountHandler(t *testing.T) {
	addr := encodeAddress(t, "cosmos")
	r := newRouter(newTestEngine(t), staticLoader{}, fakeAccount{})

	rec := get(t, r, "/api/account/"+addr)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[accountResponse](t, rec)
	if resp.Address != addr || len(resp.Balances) != 1 || len(resp.Delegations) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.TotalDelegated != 150.5 {
		t.Errorf("TotalDelegated = %v, want 150.5", resp.TotalDelegated)
	}
	if resp.Rewards == nil {
		t.Error("Rewards should encode as an empty list")
	}
}

func TestAccountHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		addr string
		acct AccountReader
		code int
	}{
		{"wrong prefix", encodeAddress(t, "osmo"), fakeAccount{}, http.StatusBadRequest},
		{"not bech32", "cosmos1notanaddress", fakeAccount{}, http.StatusBadRequest},
		{"upstream failure", encodeAddress(t, "cosmos"), fakeAccount{err: errors.New("lcd down")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(newTestEngine(t), staticLoader{}, tt.acct)
			if rec := get(t, r, "/api/account/"+tt.addr); rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

// Package collector tracks Cosmos Hub block production from the CometBFT
// RPC websocket.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/web3-frozen/cosmos-defi/internal/chain"
	"github.com/web3-frozen/cosmos-defi/internal/metrics"
	"github.com/web3-frozen/cosmos-defi/internal/yield"
)

const (
	reconnectDelay = 5 * time.Second
	maxSamples     = 512
	// backfillDepth is how far behind the tip Backfill seeds its first sample.
	backfillDepth = 1000

	subscribeNewBlock = `{"jsonrpc":"2.0","method":"subscribe","id":1,"params":{"query":"tm.event='NewBlock'"}}`
)

// Sample is a block height observed at a block time.
type Sample struct {
	Height int64
	Time   time.Time
}

// BlockSource is the LCD subset used to seed the tracker.
type BlockSource interface {
	LatestBlock(ctx context.Context) (chain.Block, error)
	BlockAt(ctx context.Context, height int64) (chain.Block, error)
}

// BlockTime keeps a window of recent block samples and extrapolates the
// chain's blocks per year from them.
type BlockTime struct {
	wsURL  string
	logger *slog.Logger

	mu      sync.RWMutex
	samples []Sample
}

func NewBlockTime(wsURL string, logger *slog.Logger) *BlockTime {
	return &BlockTime{
		wsURL:   wsURL,
		logger:  logger,
		samples: make([]Sample, 0, maxSamples),
	}
}

// Seed records a sample obtained out of band, e.g. from the LCD.
func (b *BlockTime) Seed(height int64, t time.Time) {
	b.add(Sample{Height: height, Time: t})
}

// Samples returns a copy of the current window, oldest first.
func (b *BlockTime) Samples() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// BlocksPerYear returns the observed block rate scaled to a year, or 0 when
// fewer than two samples are known.
func (b *BlockTime) BlocksPerYear() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.samples) < 2 {
		return 0
	}
	first, last := b.samples[0], b.samples[len(b.samples)-1]
	elapsed := last.Time.Sub(first.Time)
	if elapsed <= 0 {
		return 0
	}
	return float64(last.Height-first.Height) * float64(yield.Year) / float64(elapsed)
}

func (b *BlockTime) add(s Sample) {
	if s.Height <= 0 || s.Time.IsZero() {
		return
	}
	b.mu.Lock()
	i := sort.Search(len(b.samples), func(i int) bool { return b.samples[i].Height >= s.Height })
	if i < len(b.samples) && b.samples[i].Height == s.Height {
		b.mu.Unlock()
		return
	}
	b.samples = append(b.samples, Sample{})
	copy(b.samples[i+1:], b.samples[i:])
	b.samples[i] = s
	if len(b.samples) > maxSamples {
		b.samples = b.samples[len(b.samples)-maxSamples:]
	}
	b.mu.Unlock()

	if bpy := b.BlocksPerYear(); bpy > 0 {
		metrics.BlocksPerYear.Set(bpy)
	}
}

// Backfill seeds the window with the chain tip and a block backfillDepth
// heights earlier so BlocksPerYear is available before the first event.
func (b *BlockTime) Backfill(ctx context.Context, src BlockSource) error {
	tip, err := src.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	b.Seed(tip.Height, tip.Time)

	if tip.Height <= backfillDepth {
		return nil
	}
	past, err := src.BlockAt(ctx, tip.Height-backfillDepth)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	b.Seed(past.Height, past.Time)
	return nil
}

// Run subscribes to NewBlock events until ctx is cancelled, reconnecting
// after a fixed delay.
func (b *BlockTime) Run(ctx context.Context) {
	b.logger.Info("block time collector starting", "url", b.wsURL)
	for {
		err := b.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}

		b.logger.Warn("cometbft ws disconnected, reconnecting", "error", err, "delay", reconnectDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (b *BlockTime) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, b.wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck
	conn.SetReadLimit(4 << 20)

	if err := conn.Write(ctx, websocket.MessageText, []byte(subscribeNewBlock)); err != nil {
		return fmt.Errorf("ws subscribe: %w", err)
	}
	b.logger.Info("cometbft ws connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("ws read: %w", err)
		}
		if s, ok := parseNewBlock(data); ok {
			b.add(s)
		}
	}
}

type newBlockEvent struct {
	Result struct {
		Data struct {
			Type  string `json:"type"`
			Value struct {
				Block struct {
					Header struct {
						Height string    `json:"height"`
						Time   time.Time `json:"time"`
					} `json:"header"`
				} `json:"block"`
			} `json:"value"`
		} `json:"data"`
	} `json:"result"`
}

// parseNewBlock extracts the header from a NewBlock event. The subscribe
// acknowledgement and other messages are ignored.
func parseNewBlock(data []byte) (Sample, bool) {
	var ev newBlockEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return Sample{}, false
	}
	if ev.Result.Data.Type != "tendermint/event/NewBlock" {
		return Sample{}, false
	}
	h := ev.Result.Data.Value.Block.Header
	height, err := strconv.ParseInt(h.Height, 10, 64)
	if err != nil || h.Time.IsZero() {
		return Sample{}, false
	}
	return Sample{Height: height, Time: h.Time}, true
}

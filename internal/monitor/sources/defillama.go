package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/web3-frozen/cosmos-defi/internal/fetch"
	"github.com/web3-frozen/cosmos-defi/internal/monitor"
)

const defillamaAPI = "https://api.llama.fi"

// DefiLlama looks up protocol TVL in USD by DefiLlama slug.
type DefiLlama struct {
	baseURL string
	client  *fetch.Client
}

func NewDefiLlama(client *fetch.Client) *DefiLlama {
	return &DefiLlama{baseURL: defillamaAPI, client: client}
}

func (d *DefiLlama) WithBaseURL(u string) *DefiLlama {
	d.baseURL = strings.TrimRight(u, "/")
	return d
}

// TVL returns the current TVL of slug.
func (d *DefiLlama) TVL(ctx context.Context, slug string) (float64, error) {
	tvl, err := fetch.GetJSON[float64](ctx, d.client, d.baseURL+"/tvl/"+url.PathEscape(slug))
	if err != nil {
		return 0, fmt.Errorf("defillama tvl %s: %w", slug, err)
	}
	return tvl, nil
}

// tvlSource fills in TVL from DefiLlama when the wrapped source has none.
type tvlSource struct {
	monitor.Source
	llama *DefiLlama
	slug  string
}

// WithTVL wraps src so its snapshots carry a TVL. A DefiLlama failure is
// recorded in the snapshot notes and does not fail the poll.
func WithTVL(src monitor.Source, llama *DefiLlama, slug string) monitor.Source {
	if llama == nil || slug == "" {
		return src
	}
	return &tvlSource{Source: src, llama: llama, slug: slug}
}

func (t *tvlSource) FetchSnapshot(ctx context.Context) (*monitor.Snapshot, error) {
	snap, err := t.Source.FetchSnapshot(ctx)
	if err != nil || snap == nil {
		return snap, err
	}
	if snap.Metrics == nil {
		snap.Metrics = make(map[string]float64)
	}
	if snap.Has(monitor.MetricTVL) {
		return snap, nil
	}

	tvl, err := t.llama.TVL(ctx, t.slug)
	if err != nil {
		if snap.Notes == nil {
			snap.Notes = make(map[string]string)
		}
		snap.Notes["tvl"] = err.Error()
		return snap, nil
	}
	snap.Metrics[monitor.MetricTVL] = tvl
	if snap.DataSources == nil {
		snap.DataSources = make(map[string]string)
	}
	snap.DataSources["tvl"] = "defillama:" + t.slug
	return snap, nil
}

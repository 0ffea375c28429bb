package catalog

import "testing"

func TestAllOrdering(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("catalog is empty")
	}
	order := make(map[Category]int)
	for i, c := range Categories() {
		order[c] = i
	}
	for i := 1; i < len(all); i++ {
		if order[all[i-1].Category] > order[all[i].Category] {
			t.Errorf("%s (%s) sorted before %s (%s)", all[i-1].ID, all[i-1].Category, all[i].ID, all[i].Category)
		}
	}
}

func TestProtocolsAreConsistent(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range All() {
		if seen[p.ID] {
			t.Errorf("duplicate protocol id %q", p.ID)
		}
		seen[p.ID] = true
		if !p.Category.Valid() {
			t.Errorf("%s: invalid category %q", p.ID, p.Category)
		}
		if p.Source == "" || p.URL == "" || p.Name == "" {
			t.Errorf("%s: missing source, url or name", p.ID)
		}
	}
}

func TestByID(t *testing.T) {
	p, ok := ByID("stride")
	if !ok || p.Token != "stATOM" {
		t.Errorf("ByID(stride) = %+v, %v", p, ok)
	}
	if _, ok := ByID("nope"); ok {
		t.Error("ByID(nope) should not be found")
	}
}

func TestByCategory(t *testing.T) {
	for _, p := range ByCategory(LiquidStaking) {
		if p.Category != LiquidStaking {
			t.Errorf("%s in liquid-staking list has category %s", p.ID, p.Category)
		}
	}
	if got := len(ByCategory(Staking)); got != 1 {
		t.Errorf("len(ByCategory(staking)) = %d, want 1", got)
	}
	if got := ByCategory("farming"); got != nil {
		t.Errorf("ByCategory(farming) = %v, want nil", got)
	}
}

func TestWithHistory(t *testing.T) {
	for _, p := range WithHistory() {
		if p.Category != LiquidStaking {
			t.Errorf("%s publishes history but is %s", p.ID, p.Category)
		}
	}
}

func TestBySource(t *testing.T) {
	p, ok := BySource("pageapr")
	if !ok || p.ID != "whitewhale" {
		t.Errorf("BySource(pageapr) = %q, %v; want whitewhale", p.ID, ok)
	}
	if _, ok := BySource("nope"); ok {
		t.Error("BySource(nope) should not match")
	}
}

package pool

import (
	"sort"
	"testing"

	"github.com/binkshq/binks/pkg/config"
)

func TestTierFilterDefaultCap(t *testing.T) {
	servers := map[string]config.CapabilityServerConfig{
		"fs":     {Command: "fs-server", Tier: config.Tier1},
		"search": {Command: "search-server", Tier: config.Tier2},
		"heavy":  {Command: "heavy-server", Tier: config.Tier3},
		"secret": {Command: "secret-server", Tier: config.TierAgentOnly},
	}

	got := TierFilter(servers, 2, nil)
	sort.Strings(got)

	want := []string{"fs", "search"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTierFilterUnsetDefaultsToTier1(t *testing.T) {
	servers := map[string]config.CapabilityServerConfig{
		"plain": {Command: "plain-server"},
	}

	got := TierFilter(servers, 1, nil)
	if len(got) != 1 || got[0] != "plain" {
		t.Fatalf("expected unset-tier server to pass a tier-1 cap, got %v", got)
	}

	got = TierFilter(servers, 0, nil)
	if len(got) != 0 {
		t.Fatalf("expected unset tier to behave as tier 1 and be excluded by a cap of 0, got %v", got)
	}
}

func TestTierFilterExplicitOverrideBypassesTier(t *testing.T) {
	servers := map[string]config.CapabilityServerConfig{
		"secret": {Command: "secret-server", Tier: config.TierAgentOnly},
	}

	got := TierFilter(servers, 1, []string{"secret"})
	if len(got) != 1 || got[0] != "secret" {
		t.Fatalf("expected override to win outright, got %v", got)
	}
}

func TestTierFilterAgentOnlyExcludedByDefault(t *testing.T) {
	servers := map[string]config.CapabilityServerConfig{
		"secret": {Command: "secret-server", Tier: config.TierAgentOnly},
	}

	got := TierFilter(servers, 3, nil)
	if len(got) != 0 {
		t.Fatalf("expected agent_only server excluded from auto-filter, got %v", got)
	}
}

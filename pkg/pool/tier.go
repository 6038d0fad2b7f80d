package pool

import "github.com/binkshq/binks/pkg/config"

// TierFilter selects server names whose tier falls within cap,
// excluding TierAgentOnly servers unless explicitly named in override.
// Explicit overrides bypass tier entirely and win outright (§4.3).
func TierFilter(servers map[string]config.CapabilityServerConfig, cap int, override []string) []string {
	if len(override) > 0 {
		return override
	}

	var names []string
	for name, server := range servers {
		if server.Tier == config.TierAgentOnly {
			continue
		}
		tier := server.Tier
		if tier == config.TierUnset {
			tier = config.Tier1
		}
		if int(tier) <= cap {
			names = append(names, name)
		}
	}
	return names
}

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/binkshq/binks/pkg/capability"
	"github.com/binkshq/binks/pkg/config"
	"github.com/binkshq/binks/pkg/daemon"
	"github.com/binkshq/binks/pkg/llm"
	"github.com/binkshq/binks/pkg/parser"
	"github.com/binkshq/binks/pkg/pool"
)

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultModel     = "llama3.1:8b"
	daemonPingWait   = 300 * time.Millisecond
)

// CommandContext is the collaborator bundle every command runs
// against: resolved CLI/config settings plus the wired pool, LLM
// client, and parser registry (§6's "core-relevant subset" consumes
// the same C1-C9 components a daemon or embedding host would).
type CommandContext struct {
	OllamaURL string
	Model     string
	Verbose   int

	ProjectRoot string
	AgentCfg    *config.AgentConfig
	Manifest    *config.CapabilityManifest

	Pool   *pool.Pool
	LLM    *llm.Client
	Parser *parser.Registry

	daemonClient *daemon.Client
	metricsAddr  string
}

// newCommandContext resolves configuration (CLI flags > env vars >
// agent file config > hardcoded defaults) and builds every
// collaborator a command might need. It never fails outright for
// missing optional config files — only a malformed one present on
// disk is an error.
func newCommandContext(cli *CLI) (*CommandContext, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, _ := config.DiscoverProjectRoot(cwd)

	backend, endpoints, err := configBackendFromEnv()
	if err != nil {
		return nil, err
	}

	manifest, err := loadManifestTolerant(backend, endpoints, config.ManifestPath(root))
	if err != nil {
		return nil, err
	}

	agentCfg, err := loadAgentConfigTolerant(config.AgentConfigPath(root))
	if err != nil {
		return nil, err
	}

	ollamaURL, model := resolveModelSettings(cli, agentCfg)

	embedded := capability.NewRegistry()
	embedded.Register(capability.NewControl())

	var dclient *daemon.Client
	socketPath := daemon.DefaultSocketPath()
	if daemon.IsRunning(socketPath, daemonPingWait) {
		dclient = daemon.NewClient(socketPath)
	}

	p := pool.New(pool.Options{
		Manifest: manifest,
		Embedded: embedded,
		Daemon:   daemonClientOrNil(dclient),
	})

	cc := &CommandContext{
		OllamaURL:   ollamaURL,
		Model:       model,
		Verbose:     cli.Verbose,
		ProjectRoot: root,
		AgentCfg:    agentCfg,
		Manifest:    manifest,
		Pool:        p,
		LLM:         llm.New(llmConfigFor(model, ollamaURL, agentCfg)),
		Parser:      parser.NewDefaultRegistry(),

		daemonClient: dclient,
		metricsAddr:  cli.MetricsAddr,
	}
	return cc, nil
}

// daemonClientOrNil avoids handing pool.New a non-nil interface value
// wrapping a nil *daemon.Client (which would make pool.Daemon != nil
// true even with no daemon running).
func daemonClientOrNil(c *daemon.Client) pool.DaemonClient {
	if c == nil {
		return nil
	}
	return c
}

// Close releases context-owned resources. Currently a no-op placeholder
// kept for symmetry with collaborators that do own resources (the
// daemon client dials fresh per call and owns nothing persistent).
func (cc *CommandContext) Close() {}

func configBackendFromEnv() (config.Backend, []string, error) {
	raw := os.Getenv("BINKS_CONFIG_BACKEND")
	backend, err := config.ParseBackend(raw)
	if err != nil {
		return "", nil, err
	}
	var endpoints []string
	if raw := os.Getenv("BINKS_CONFIG_ENDPOINTS"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				endpoints = append(endpoints, e)
			}
		}
	}
	return backend, endpoints, nil
}

func loadManifestTolerant(backend config.Backend, endpoints []string, path string) (*config.CapabilityManifest, error) {
	if backend == config.BackendFile {
		if _, err := os.Stat(path); err != nil {
			return &config.CapabilityManifest{MCPServers: map[string]config.CapabilityServerConfig{}}, nil
		}
	}
	manifest, err := config.LoadManifest(config.ManifestLoaderOptions{
		Backend:   backend,
		Path:      path,
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

func loadAgentConfigTolerant(path string) (*config.AgentConfig, error) {
	if _, err := os.Stat(path); err != nil {
		cfg := &config.AgentConfig{}
		cfg.SetDefaults()
		return cfg, nil
	}
	cfg, err := config.LoadAgentConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveModelSettings applies the precedence CLI flag > env var (kong
// binds env: tags itself) > agent file config's default model entry >
// hardcoded defaults.
func resolveModelSettings(cli *CLI, agentCfg *config.AgentConfig) (string, string) {
	ollamaURL := cli.OllamaURL
	model := cli.Model

	if model == "" {
		model = agentCfg.Defaults.Model
	}
	if model == "" {
		model = defaultModel
	}
	if ollamaURL == "" {
		if mc, ok := agentCfg.Models[model]; ok && mc.BaseURL != "" {
			ollamaURL = mc.BaseURL
		}
	}
	if ollamaURL == "" {
		ollamaURL = defaultOllamaURL
	}
	return ollamaURL, model
}

func llmConfigFor(model, ollamaURL string, agentCfg *config.AgentConfig) llm.Config {
	cfg := llm.Config{BaseURL: ollamaURL, Model: model}
	if mc, ok := agentCfg.Models[model]; ok {
		if mc.Temperature != nil {
			cfg.Temperature = *mc.Temperature
		}
		if mc.MaxTokens != 0 {
			cfg.MaxTokens = mc.MaxTokens
		}
	}
	return cfg
}

// backgroundCtx is the root context used outside of a long-running
// interactive loop, where a command has no finer-grained cancellation
// source of its own.
func backgroundCtx() context.Context { return context.Background() }

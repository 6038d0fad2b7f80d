package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/consul/v2"
	"github.com/knadh/koanf/providers/etcd/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Backend selects where the capability manifest is loaded from. The
// agent file config is always loaded from the local filesystem.
type Backend string

const (
	BackendFile      Backend = "file"
	BackendConsul    Backend = "consul"
	BackendEtcd      Backend = "etcd"
	BackendZookeeper Backend = "zookeeper"
)

// ParseBackend validates a BINKS_CONFIG_BACKEND value.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file":
		return BackendFile, nil
	case "consul":
		return BackendConsul, nil
	case "etcd":
		return BackendEtcd, nil
	case "zookeeper", "zk":
		return BackendZookeeper, nil
	default:
		return "", fmt.Errorf("invalid config backend: %s (valid: file, consul, etcd, zookeeper)", s)
	}
}

// ManifestLoaderOptions configures where and how the capability
// manifest is loaded.
type ManifestLoaderOptions struct {
	Backend   Backend
	Path      string
	Endpoints []string
	Watch     bool
	OnChange  func(*CapabilityManifest)
}

// ManifestLoader loads the capability-server manifest from file,
// Consul, etcd, or ZooKeeper, expanding env vars in server command
// env blocks after decode.
type ManifestLoader struct {
	koanf    *koanf.Koanf
	opts     ManifestLoaderOptions
	parser   *yaml.YAML
	stopChan chan struct{}
}

// NewManifestLoader builds a loader, filling in the conventional
// default endpoint for the chosen backend when none was supplied.
func NewManifestLoader(opts ManifestLoaderOptions) (*ManifestLoader, error) {
	if opts.Backend == "" {
		opts.Backend = BackendFile
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("manifest path is required")
	}
	if len(opts.Endpoints) == 0 {
		switch opts.Backend {
		case BackendConsul:
			opts.Endpoints = []string{"localhost:8500"}
		case BackendEtcd:
			opts.Endpoints = []string{"localhost:2379"}
		case BackendZookeeper:
			opts.Endpoints = []string{"localhost:2181"}
		}
	}
	return &ManifestLoader{
		koanf:    koanf.New("."),
		opts:     opts,
		parser:   yaml.Parser(),
		stopChan: make(chan struct{}),
	}, nil
}

func (l *ManifestLoader) provider() (koanf.Provider, koanf.Parser, error) {
	switch l.opts.Backend {
	case BackendFile:
		return file.Provider(l.opts.Path), l.parser, nil

	case BackendConsul:
		cfg := api.DefaultConfig()
		cfg.Address = l.opts.Endpoints[0]
		return consul.Provider(consul.Config{Cfg: cfg, Key: l.opts.Path}), nil, nil

	case BackendEtcd:
		return etcd.Provider(etcd.Config{
			Endpoints:   l.opts.Endpoints,
			DialTimeout: 5 * time.Second,
			Key:         l.opts.Path,
		}), nil, nil

	case BackendZookeeper:
		zp, err := NewZookeeperProvider(l.opts.Endpoints, l.opts.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("zookeeper provider: %w", err)
		}
		return zp, l.parser, nil

	default:
		return nil, nil, fmt.Errorf("unsupported config backend: %s", l.opts.Backend)
	}
}

// Load reads, parses, expands env vars, and decodes the manifest.
func (l *ManifestLoader) Load() (*CapabilityManifest, error) {
	provider, parser, err := l.provider()
	if err != nil {
		return nil, err
	}
	if err := l.koanf.Load(provider, parser); err != nil {
		return nil, fmt.Errorf("load manifest from %s: %w", l.opts.Backend, err)
	}

	manifest, err := l.decode()
	if err != nil {
		return nil, err
	}

	if l.opts.Watch {
		watcher, ok := provider.(interface {
			Watch(func(any, error)) error
		})
		if ok {
			go l.watch(watcher)
		} else {
			slog.Warn("config backend does not support watching", "backend", l.opts.Backend)
		}
	}

	return manifest, nil
}

func (l *ManifestLoader) decode() (*CapabilityManifest, error) {
	manifest := &CapabilityManifest{}
	if err := l.koanf.UnmarshalWithConf("", manifest, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	for name, server := range manifest.MCPServers {
		server.Env = ExpandServerEnv(server.Env)
		manifest.MCPServers[name] = server
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation: %w", err)
	}
	return manifest, nil
}

func (l *ManifestLoader) watch(watcher interface{ Watch(func(any, error)) error }) {
	err := watcher.Watch(func(event any, err error) {
		select {
		case <-l.stopChan:
			return
		default:
		}
		if err != nil {
			slog.Warn("config watch error", "error", err)
			return
		}
		provider, parser, perr := l.provider()
		if perr != nil {
			slog.Warn("config watch reload failed", "error", perr)
			return
		}
		newKoanf := koanf.New(".")
		if lerr := newKoanf.Load(provider, parser); lerr != nil {
			slog.Warn("config watch reload failed", "error", lerr)
			return
		}
		l.koanf = newKoanf
		manifest, derr := l.decode()
		if derr != nil {
			slog.Warn("config watch reload failed", "error", derr)
			return
		}
		if l.opts.OnChange != nil {
			l.opts.OnChange(manifest)
		}
	})
	if err != nil {
		slog.Warn("config watcher stopped", "error", err)
	}
}

// Stop ends any active watch goroutine.
func (l *ManifestLoader) Stop() {
	close(l.stopChan)
}

// LoadManifest is a convenience wrapper for one-shot, non-watching
// loads.
func LoadManifest(opts ManifestLoaderOptions) (*CapabilityManifest, error) {
	opts.Watch = false
	loader, err := NewManifestLoader(opts)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}

// LoadAgentConfig reads the agent file config from path (always local
// file, always YAML), applies env expansion, defaults, and validation.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load agent config: %w", err)
	}

	expanded := ExpandEnvVarsInData(k.Raw())
	expandedMap, ok := expanded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("agent config: unexpected shape after env expansion")
	}

	k2 := koanf.New(".")
	if err := k2.Load(confmap.Provider(expandedMap, "."), nil); err != nil {
		return nil, fmt.Errorf("load expanded agent config: %w", err)
	}

	cfg := &AgentConfig{}
	if err := k2.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("decode agent config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent config validation: %w", err)
	}
	return cfg, nil
}

package config

import "testing"

func TestCapabilityServerConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		server  CapabilityServerConfig
		wantErr bool
	}{
		{"command only", CapabilityServerConfig{Command: "npx"}, false},
		{"url only", CapabilityServerConfig{ServerURL: "http://localhost:9000/sse"}, false},
		{"neither", CapabilityServerConfig{}, true},
		{"both", CapabilityServerConfig{Command: "npx", ServerURL: "http://x"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.server.Validate("s")
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestManifestValidate(t *testing.T) {
	m := &CapabilityManifest{MCPServers: map[string]CapabilityServerConfig{
		"fs": {Command: "mcp-server-fs"},
	}}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	m.MCPServers["bad"] = CapabilityServerConfig{}
	if err := m.Validate(); err == nil {
		t.Fatal("expected validation error for malformed server entry")
	}
}

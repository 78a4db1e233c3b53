package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
node_basename: myapp
tag_name: mytag
token: sekrit
polling_interval: 10000
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "myapp", c.Basename)
	require.Equal(t, "mytag", c.Tag)
	require.Equal(t, "sekrit", c.Token)
	require.Equal(t, ProviderDigitalOcean, c.Provider)
	require.Equal(t, 10*time.Second, c.PollingInterval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_basename: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Basename: "myapp", Tag: "mytag", Token: "sekrit"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing basename", func(c *Config) { c.Basename = "" }, "node_basename"},
		{"missing tag", func(c *Config) { c.Tag = "" }, "tag_name"},
		{"missing token", func(c *Config) { c.Token = "" }, "token"},
		{"negative interval", func(c *Config) { c.PollingIntervalMS = -1 }, "polling_interval"},
		{"unknown provider", func(c *Config) { c.Provider = "gcp" }, "unrecognized provider"},
		{"ec2 without region", func(c *Config) { c.Provider = ProviderEC2; c.Token = "" }, "aws_region"},
		{"etcd without endpoints", func(c *Config) { c.Provider = ProviderEtcd; c.Token = "" }, "etcd_endpoints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	c := Config{Basename: "myapp", Tag: "mytag", Token: "sekrit"}
	require.NoError(t, c.Validate())
	require.Equal(t, ProviderDigitalOcean, c.Provider)
	require.Equal(t, DefaultPollingIntervalMS, c.PollingIntervalMS)
	require.Equal(t, 5*time.Second, c.PollingInterval())
}

func TestValidateEC2(t *testing.T) {
	c := Config{Basename: "myapp", Tag: "mytag", Provider: ProviderEC2, AWSRegion: "us-east-1"}
	require.NoError(t, c.Validate()) // no token needed
}

func TestValidateEtcd(t *testing.T) {
	c := Config{Basename: "myapp", Tag: "mytag", Provider: ProviderEtcd, EtcdEndpoints: []string{"http://127.0.0.1:2379"}}
	require.NoError(t, c.Validate()) // no token needed
}

// Package config loads and validates the file configuration for one
// membership instance. Validation is fail-fast: a bad config stops the
// instance before its first cycle rather than degrading silently.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Providers recognized by the Provider option.
const (
	ProviderDigitalOcean = "digitalocean"
	ProviderEC2          = "ec2"
	ProviderEtcd         = "etcd"
)

// DefaultPollingIntervalMS between reconciliation cycles.
const DefaultPollingIntervalMS = 5000

// Config holds the options for one membership instance. Run independent
// instances, each with its own Config, to track several tags.
type Config struct {
	// Basename is the shared prefix for peer identifiers, e.g. "myapp" in
	// "myapp@10.0.1.2". Required.
	Basename string `yaml:"node_basename"`

	// Tag is the discovery selector: which tagged resources represent
	// cluster peers. Required for the digitalocean and ec2 providers; for
	// etcd it names the registry prefix.
	Tag string `yaml:"tag_name"`

	// Token is the credential passed to the discovery provider. Required
	// for the digitalocean provider.
	Token string `yaml:"token"`

	// PollingIntervalMS is the cycle cadence in milliseconds. Optional;
	// defaults to DefaultPollingIntervalMS.
	PollingIntervalMS int `yaml:"polling_interval"`

	// Provider selects the discovery backend: digitalocean, ec2, or etcd.
	// Optional; defaults to digitalocean.
	Provider string `yaml:"provider"`

	// EtcdEndpoints for the etcd provider.
	EtcdEndpoints []string `yaml:"etcd_endpoints"`

	// AWS options for the ec2 provider. Region required for ec2; the key
	// pair is optional (the default credential chain applies otherwise).
	AWSRegion          string `yaml:"aws_region"`
	AWSAccessKeyID     string `yaml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key"`
}

// Load reads and parses a YAML config file. The result isn't validated;
// callers apply any overrides first, then call Validate.
func Load(path string) (Config, error) {
	var c Config
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, errors.Wrap(err, "parsing config file")
	}
	return c, nil
}

// Validate applies defaults and checks required options.
func (c *Config) Validate() error {
	if c.Basename == "" {
		return errors.New("must provide node_basename")
	}
	if c.Provider == "" {
		c.Provider = ProviderDigitalOcean
	}
	if c.PollingIntervalMS == 0 {
		c.PollingIntervalMS = DefaultPollingIntervalMS
	}
	if c.PollingIntervalMS < 0 {
		return errors.Errorf("invalid polling_interval %d", c.PollingIntervalMS)
	}

	switch c.Provider {
	case ProviderDigitalOcean:
		if c.Tag == "" {
			return errors.New("must provide tag_name")
		}
		if c.Token == "" {
			return errors.New("must provide token")
		}
	case ProviderEC2:
		if c.Tag == "" {
			return errors.New("must provide tag_name")
		}
		if c.AWSRegion == "" {
			return errors.New("must provide aws_region")
		}
	case ProviderEtcd:
		if c.Tag == "" {
			return errors.New("must provide tag_name")
		}
		if len(c.EtcdEndpoints) == 0 {
			return errors.New("must provide etcd_endpoints")
		}
	default:
		return errors.Errorf("unrecognized provider %q", c.Provider)
	}
	return nil
}

// PollingInterval returns the cadence as a duration.
func (c Config) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalMS) * time.Millisecond
}

package discovery

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/coop/libcluster-digitalocean/membership"
)

// RegistrySource discovers peers from an etcd registry. Every process
// registers its address under a common key prefix (see Register), and
// discovery is a prefix scan. Useful where no cloud inventory exists, e.g.
// bare metal or local development.
type RegistrySource struct {
	// Client is a connected etcd client.
	//
	// Required.
	Client *clientv3.Client

	// Prefix under which peer addresses are registered, e.g.
	// "/cluster/mytag/".
	//
	// Required.
	Prefix string

	// Basename is the shared node basename for peer IDs.
	//
	// Required.
	Basename string
}

var _ membership.Discoverer = (*RegistrySource)(nil)

// Discover implements membership.Discoverer. Keys with empty values are
// skipped.
func (s *RegistrySource) Discover(ctx context.Context) (membership.PeerSet, error) {
	resp, err := s.Client.Get(ctx, s.Prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrapf(err, "scanning registry %s", s.Prefix)
	}
	peers := membership.PeerSet{}
	for _, kv := range resp.Kvs {
		addr := strings.TrimSpace(string(kv.Value))
		if addr == "" {
			continue
		}
		peers.Add(membership.MakePeerID(s.Basename, addr))
	}
	return peers, nil
}

// Register announces addr under prefix/name with a TTL lease, kept alive
// for the life of ctx. When the process dies the lease expires and the
// registration disappears on its own.
func Register(ctx context.Context, client *clientv3.Client, prefix, name, addr string, ttlSeconds int64) (clientv3.LeaseID, error) {
	lease, err := client.Grant(ctx, ttlSeconds)
	if err != nil {
		return 0, errors.Wrap(err, "granting registration lease")
	}

	key := path.Join(prefix, name)
	if _, err := client.Put(ctx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
		return 0, errors.Wrapf(err, "registering %s", key)
	}

	ch, err := client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return 0, errors.Wrap(err, "keeping registration lease alive")
	}
	go func() {
		for range ch {
			// drain keepalive acks until ctx ends
		}
	}()

	return lease.ID, nil
}

// Package discovery provides membership.Discoverer implementations over
// external inventory sources: DigitalOcean droplets by tag, EC2 instances
// by tag, and an etcd registry. Each provider turns a listing into a set of
// peer IDs; records that don't yield a reachable address are dropped from
// the set rather than failing the listing.
package discovery

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/coop/libcluster-digitalocean/membership"
)

// DefaultDigitalOceanURL is the public API endpoint.
const DefaultDigitalOceanURL = "https://api.digitalocean.com"

// HTTPClient models *http.Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// DropletSource discovers peers by listing the DigitalOcean droplets that
// carry a tag. Each droplet's first public IPv4 address becomes the peer's
// address; droplets without one (private-only networking, still
// provisioning) are skipped.
type DropletSource struct {
	// Token is the API bearer token.
	//
	// Required.
	Token string

	// Tag selects which droplets represent cluster peers.
	//
	// Required.
	Tag string

	// Basename is the shared node basename combined with each droplet
	// address to form peer IDs.
	//
	// Required.
	Basename string

	// BaseURL overrides the API endpoint, e.g. for tests.
	//
	// Optional. If not provided, DefaultDigitalOceanURL is used.
	BaseURL string

	// Client issues the API requests.
	//
	// Optional. If not provided, http.DefaultClient is used.
	Client HTTPClient
}

var _ membership.Discoverer = (*DropletSource)(nil)

type dropletsPage struct {
	Droplets []droplet `json:"droplets"`
	Links    struct {
		Pages struct {
			Next string `json:"next"`
		} `json:"pages"`
	} `json:"links"`
}

type droplet struct {
	Networks struct {
		V4 []struct {
			IPAddress string `json:"ip_address"`
			Type      string `json:"type"`
		} `json:"v4"`
	} `json:"networks"`
}

// Discover implements membership.Discoverer. It pages through the tagged
// droplet listing; auth and transport problems are errors, but a 200 whose
// payload yields no peers is just an empty set.
func (s *DropletSource) Discover(ctx context.Context) (membership.PeerSet, error) {
	var (
		base   = s.BaseURL
		client = s.Client
		peers  = membership.PeerSet{}
	)
	if base == "" {
		base = DefaultDigitalOceanURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	next := fmt.Sprintf("%s/v2/droplets?tag_name=%s&per_page=200", base, url.QueryEscape(s.Tag))
	for next != "" {
		page, err := s.fetch(ctx, client, next)
		if err != nil {
			return nil, err
		}
		for _, d := range page.Droplets {
			addr, ok := publicV4(d)
			if !ok {
				continue
			}
			peers.Add(membership.MakePeerID(s.Basename, addr))
		}
		next = page.Links.Pages.Next
	}
	return peers, nil
}

func (s *DropletSource) fetch(ctx context.Context, client HTTPClient, u string) (page dropletsPage, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return page, errors.Wrap(err, "building droplet listing request")
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return page, errors.Wrap(err, "listing droplets")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page, errors.Errorf("droplet listing: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// A 200 with a body we can't decode yields no peers, not an error.
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return dropletsPage{}, nil
	}
	return page, nil
}

func publicV4(d droplet) (string, bool) {
	for _, n := range d.Networks.V4 {
		if n.Type == "public" && n.IPAddress != "" {
			return n.IPAddress, true
		}
	}
	return "", false
}

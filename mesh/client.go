package mesh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/coop/libcluster-digitalocean/membership"
)

// HTTPClient models *http.Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client drives join/leave handshakes against peer mesh servers, and
// implements membership.Connector. Calls fan out one request per peer;
// every outcome is collected before the report is returned, so the caller
// never sees a partial result.
type Client struct {
	self   membership.PeerID
	id     string
	port   int
	scheme string
	client HTTPClient
	logger log.Logger
}

var _ membership.Connector = (*Client)(nil)

// ClientConfig describes how to construct a Client.
type ClientConfig struct {
	// Self is the local node's peer ID, sent in every handshake.
	//
	// Required.
	Self membership.PeerID

	// Port is the mesh port peers listen on. Peer addresses carry no port,
	// so every peer is assumed to serve its mesh on the same one.
	//
	// Required.
	Port int

	// Scheme for peer URLs.
	//
	// Optional. If not provided, "http" is used.
	Scheme string

	// HTTPClient issues the handshakes.
	//
	// Optional. If not provided, http.DefaultClient is used.
	HTTPClient HTTPClient

	// Logger.
	//
	// Optional.
	Logger log.Logger
}

// NewClient validates the config and constructs a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Self == "" {
		return nil, errors.New("must provide Self")
	}
	if config.Port == 0 {
		return nil, errors.New("must provide Port")
	}
	if config.Scheme == "" {
		config.Scheme = "http"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}
	return &Client{
		self:   config.Self,
		id:     uuid.New(),
		port:   config.Port,
		scheme: config.Scheme,
		client: config.HTTPClient,
		logger: config.Logger,
	}, nil
}

// Connect implements membership.Connector.
func (c *Client) Connect(ctx context.Context, peers []membership.PeerID) membership.FailureReport {
	return c.fanout(ctx, "join", peers)
}

// Disconnect implements membership.Connector.
func (c *Client) Disconnect(ctx context.Context, peers []membership.PeerID) membership.FailureReport {
	return c.fanout(ctx, "leave", peers)
}

func (c *Client) fanout(ctx context.Context, op string, peers []membership.PeerID) membership.FailureReport {
	var (
		mtx    sync.Mutex
		report = membership.FailureReport{}
		wg     sync.WaitGroup
	)
	for _, id := range peers {
		wg.Add(1)
		go func(id membership.PeerID) {
			defer wg.Done()
			if err := c.call(ctx, op, id); err != nil {
				mtx.Lock()
				report[id] = err
				mtx.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if len(report) == 0 {
		level.Debug(c.logger).Log("op", op, "peers", len(peers), "failures", 0)
		return nil
	}
	level.Debug(c.logger).Log("op", op, "peers", len(peers), "failures", len(report))
	return report
}

func (c *Client) call(ctx context.Context, op string, id membership.PeerID) error {
	var (
		hostport = net.JoinHostPort(id.Addr(), strconv.Itoa(c.port))
		u        = fmt.Sprintf("%s://%s/mesh/v1/%s", c.scheme, hostport, op)
	)

	body, err := json.Marshal(handshake{Node: c.self.String(), ID: c.id})
	if err != nil {
		return errors.Wrap(err, "encoding handshake")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "building %s request for %s", op, id)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", op, id)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s %s: %d %s", op, id, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

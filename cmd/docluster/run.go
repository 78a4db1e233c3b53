package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/coop/libcluster-digitalocean/config"
	"github.com/coop/libcluster-digitalocean/discovery"
	"github.com/coop/libcluster-digitalocean/internal/telemetry"
	"github.com/coop/libcluster-digitalocean/membership"
	"github.com/coop/libcluster-digitalocean/mesh"
)

func runCluster(args []string) error {
	flagset := flag.NewFlagSet("docluster", flag.ExitOnError)
	var (
		debug         = flagset.Bool("debug", false, "log debug information")
		configPath    = flagset.String("config", "", "path to YAML config file")
		basename      = flagset.String("basename", "", "shared node basename (overrides config)")
		tag           = flagset.String("tag", "", "discovery tag selecting cluster peers (overrides config)")
		token         = flagset.String("token", "", "discovery provider credential (overrides config)")
		provider      = flagset.String("provider", "", "discovery provider: digitalocean, ec2, etcd (overrides config)")
		interval      = flagset.Duration("interval", 0, "polling interval (overrides config)")
		advertiseAddr = flagset.String("advertise", "", "address this node is reachable on by peers")
		meshAddr      = flagset.String("mesh", defaultMeshAddr, "listen address for mesh sessions")
		metricsAddr   = flagset.String("metrics", defaultMetricsAddr, "listen address for metrics and debug")
		awsRegion     = flagset.String("aws.region", "", "AWS region for the ec2 provider (overrides config)")
		etcdEndpoints = stringslice{}
	)
	flagset.Var(&etcdEndpoints, "etcd", "etcd endpoint for the etcd provider (repeatable)")
	flagset.Usage = usageFor(flagset, "docluster [flags]")
	if err := flagset.Parse(args); err != nil {
		return err
	}

	// Build a logger.
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		lv := level.AllowInfo()
		if *debug {
			lv = level.AllowDebug()
		}
		logger = level.NewFilter(logger, lv)
	}

	// Load the config file, fold in flag overrides, and validate. A bad
	// config stops us here, before any cycle runs.
	var cfg config.Config
	{
		if *configPath != "" {
			var err error
			cfg, err = config.Load(*configPath)
			if err != nil {
				return err
			}
		}
		if *basename != "" {
			cfg.Basename = *basename
		}
		if *tag != "" {
			cfg.Tag = *tag
		}
		if *token != "" {
			cfg.Token = *token
		}
		if *provider != "" {
			cfg.Provider = *provider
		}
		if *interval != 0 {
			cfg.PollingIntervalMS = int(interval.Milliseconds())
		}
		if *awsRegion != "" {
			cfg.AWSRegion = *awsRegion
		}
		if len(etcdEndpoints) > 0 {
			cfg.EtcdEndpoints = etcdEndpoints
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if *advertiseAddr == "" {
		return errors.New("must provide -advertise")
	}
	self := membership.MakePeerID(cfg.Basename, *advertiseAddr)

	// Parse listen addresses.
	var meshNetwork, meshHost string
	var meshPort int
	{
		var err error
		meshNetwork, _, meshHost, meshPort, err = mesh.ParseAddr(*meshAddr, defaultMeshPort)
		if err != nil {
			return errors.Wrap(err, "parsing mesh address")
		}
	}
	var metricsNetwork, metricsHost string
	var metricsPort int
	{
		var err error
		metricsNetwork, _, metricsHost, metricsPort, err = mesh.ParseAddr(*metricsAddr, defaultMetricsPort)
		if err != nil {
			return errors.Wrap(err, "parsing metrics address")
		}
	}

	// The root context ends the poller and any provider-side registration.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Construct the discoverer.
	var discoverer membership.Discoverer
	{
		switch cfg.Provider {
		case config.ProviderDigitalOcean:
			discoverer = &discovery.DropletSource{
				Token:    cfg.Token,
				Tag:      cfg.Tag,
				Basename: cfg.Basename,
			}

		case config.ProviderEC2:
			client, err := discovery.NewEC2Client(ctx, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
			if err != nil {
				return err
			}
			discoverer = &discovery.InstanceSource{
				API:      client,
				TagKey:   cfg.Tag,
				Basename: cfg.Basename,
			}

		case config.ProviderEtcd:
			client, err := clientv3.New(clientv3.Config{
				Endpoints:   cfg.EtcdEndpoints,
				DialTimeout: 5 * time.Second,
			})
			if err != nil {
				return errors.Wrap(err, "connecting to etcd")
			}
			defer client.Close()

			prefix := "/cluster/" + cfg.Tag
			if _, err := discovery.Register(ctx, client, prefix, self.String(), *advertiseAddr, 10); err != nil {
				return err
			}
			discoverer = &discovery.RegistrySource{
				Client:   client,
				Prefix:   prefix,
				Basename: cfg.Basename,
			}
		}
	}

	// Construct the mesh server and connector.
	meshServer := mesh.NewServer(self.String(), log.With(logger, "component", "mesh"))
	connector, err := mesh.NewClient(mesh.ClientConfig{
		Self:   self,
		Port:   meshPort,
		Logger: log.With(logger, "component", "connector"),
	})
	if err != nil {
		return err
	}

	// Construct the membership instance.
	store := membership.NewStore()
	poller, err := membership.NewPoller(membership.PollerConfig{
		Discoverer:      discoverer,
		Connector:       connector,
		Store:           store,
		Interval:        cfg.PollingInterval(),
		Logger:          log.With(logger, "component", "poller"),
		Instrumentation: telemetry.CycleMetrics{},
	})
	if err != nil {
		return err
	}

	// Set up the listeners.
	meshListener, err := net.Listen(meshNetwork, net.JoinHostPort(meshHost, strconv.Itoa(meshPort)))
	if err != nil {
		return err
	}
	defer meshListener.Close()

	metricsListener, err := net.Listen(metricsNetwork, net.JoinHostPort(metricsHost, strconv.Itoa(metricsPort)))
	if err != nil {
		return err
	}
	defer metricsListener.Close()

	level.Info(logger).Log(
		"self", self,
		"provider", cfg.Provider,
		"tag", cfg.Tag,
		"interval", cfg.PollingInterval(),
		"mesh", meshListener.Addr().String(),
		"metrics", metricsListener.Addr().String(),
	)

	var g run.Group
	{
		// Run the membership poller.
		g.Add(func() error {
			return poller.Run(ctx)
		}, func(error) {
			cancel()
		})
	}
	{
		// Serve mesh sessions.
		server := &http.Server{Handler: meshServer}
		g.Add(func() error {
			return server.Serve(meshListener)
		}, func(error) {
			server.Shutdown(context.Background())
		})
	}
	{
		// Serve metrics and debug.
		r := mux.NewRouter()
		r.Methods("GET").Path("/metrics").Handler(telemetry.Handler())
		r.Methods("GET").Path("/debug/membership").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"self":     self,
				"state":    poller.State(),
				"peers":    store.Current().Slice(),
				"sessions": meshServer.Sessions(),
			})
		})
		r.Methods("POST").Path("/debug/poll").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			poller.Kick()
			fmt.Fprintln(w, "OK")
		})
		server := &http.Server{Handler: r}
		g.Add(func() error {
			return server.Serve(metricsListener)
		}, func(error) {
			server.Shutdown(context.Background())
		})
	}
	{
		// Listen for ctrl-C.
		sigctx, sigcancel := context.WithCancel(context.Background())
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-sigctx.Done():
				return sigctx.Err()
			}
		}, func(error) {
			sigcancel()
		})
	}
	return g.Run()
}

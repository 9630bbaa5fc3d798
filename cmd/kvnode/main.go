// Command kvnode runs one cluster member as a standalone OS process,
// communicating with its peers over real UDP sockets instead of the
// in-process simnet used by the test harness.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/config"
	"kvstore/internal/logging"
	"kvstore/internal/node"
	"kvstore/internal/transport/udpnet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kvnode:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		selfStr    = flag.String("self", "", "this node's logical address, id:port (required)")
		listenAddr = flag.String("listen", "", "UDP address to bind, host:port (required)")
		peersStr   = flag.String("peers", "", "comma-separated id:port=host:udpport peer list")
		tickEvery  = flag.Duration("tick", 100*time.Millisecond, "wall-clock duration of one protocol tick")
		tfail      = flag.Int64("tfail", 0, "ticks before a member is suspected (0 keeps the default)")
		tremove    = flag.Int64("tremove", 0, "ticks before a suspected member is evicted (0 keeps the default)")
		fanout     = flag.Int("fanout", 0, "gossip fanout per tick (0 keeps the default)")
	)
	flag.Parse()

	if *selfStr == "" || *listenAddr == "" {
		flag.Usage()
		return fmt.Errorf("-self and -listen are required")
	}

	self, err := address.Parse(*selfStr)
	if err != nil {
		return fmt.Errorf("parsing -self: %w", err)
	}

	peers, err := config.ParsePeers(*peersStr)
	if err != nil {
		return fmt.Errorf("parsing -peers: %w", err)
	}
	peerHosts := make(map[address.Address]string, len(peers))
	for _, p := range peers {
		peerHosts[p.Addr] = p.Host
	}

	tr, err := udpnet.New(self, *listenAddr, peerHosts)
	if err != nil {
		return fmt.Errorf("starting udp transport: %w", err)
	}
	defer tr.Close()

	params := config.DefaultParams()
	if *tfail > 0 {
		params.TFAIL = *tfail
	}
	if *tremove > 0 {
		params.TREMOVE = *tremove
	}
	if *fanout > 0 {
		params.GossipFanout = *fanout
	}

	logger := logging.NewStandard()
	clk := clock.NewTicker(*tickEvery)
	rng := rand.New(rand.NewSource(int64(self.ID)))
	n := node.New(self, clk, tr, logger, params, rng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("[%s] starting, listening on %s, %d known peers", self, *listenAddr, len(peers))

	ticker := time.NewTicker(*tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Printf("[%s] shutting down", self)
			return nil
		case <-ticker.C:
			n.Tick()
		}
	}
}

// Package nats adapts the kv persistence contract onto NATS JetStream
// key-value buckets, so actor snapshots can live in an external store.
package nats

import (
	"os"
	"sync"

	natsgo "github.com/nats-io/nats.go"
)

type closeFunc = func()

// Connector opens a NATS connection and returns a release function. The
// connection must stay usable until release is called.
type Connector func() (nc *natsgo.Conn, release closeFunc, err error)

// lease refcounts one shared connection. The connection is opened on the
// first acquire and closed when the last holder releases.
type lease struct {
	mu      sync.Mutex
	connect Connector
	nc      *natsgo.Conn
	close   closeFunc
	held    int
}

func (l *lease) acquire() (*natsgo.Conn, closeFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nc == nil {
		nc, release, err := l.connect()
		if err != nil {
			return nil, nil, err
		}
		l.nc, l.close = nc, release
	}
	l.held++
	return l.nc, l.release, nil
}

func (l *lease) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held--
	if l.held == 0 {
		l.close()
		l.nc = nil
	}
}

// ReuseConnection wraps a Connector so all callers share one connection
// instead of dialing per store.
func ReuseConnection(connect Connector) Connector {
	l := &lease{connect: connect}
	return l.acquire
}

// ConnectURL connects to the given NATS URL.
func ConnectURL(natsURL string) Connector {
	return func() (*natsgo.Conn, closeFunc, error) {
		nc, err := natsgo.Connect(
			natsURL,
			natsgo.Name("solacecore-snapshots"),
			natsgo.MaxReconnects(3),
		)
		if err != nil {
			return nil, nil, err
		}
		return nc, nc.Close, nil
	}
}

// ConnectDefault honors NATS_URL and falls back to the library default.
func ConnectDefault() Connector {
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		return ConnectURL(natsURL)
	}
	return ConnectURL(natsgo.DefaultURL)
}

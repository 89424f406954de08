package server

import (
	"net"
	"time"

	"github.com/prebid/tlx-bridge/metrics"
)

// monitorableListener counts accepted and closed connections.
type monitorableListener struct {
	*net.TCPListener
	metrics metrics.MetricsEngine
}

type monitorableConnection struct {
	net.Conn
	metrics metrics.MetricsEngine
}

func (l *monitorableConnection) Close() error {
	l.metrics.RecordClosedConnection()
	return l.Conn.Close()
}

func (ln *monitorableListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}

	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	ln.metrics.RecordNewConnection()
	return &monitorableConnection{
		tc,
		ln.metrics,
	}, nil
}

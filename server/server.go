package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/golang/glog"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/metrics"
)

// Listen blocks forever, serving bridge requests on the given port. This will block forever, until the process is shut down.
func Listen(cfg *config.Configuration, handler http.Handler, adminHandler http.Handler, metricsEngine metrics.MetricsEngine) {
	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, syscall.SIGTERM, syscall.SIGINT)

	// Run the servers. Fan any process-stopper signals out to each server for graceful shutdowns.
	stopAdmin := make(chan os.Signal)
	stopMain := make(chan os.Signal)
	done := make(chan struct{})

	adminServer := newAdminServer(cfg, adminHandler)
	go shutdownAfterSignals(adminServer, stopAdmin, done)

	mainServer := newMainServer(cfg, handler)
	go shutdownAfterSignals(mainServer, stopMain, done)

	mainListener, err := newListener(mainServer.Addr, metricsEngine)
	if err != nil {
		glog.Errorf("Error listening for TCP connections on %s: %v for main server", mainServer.Addr, err)
		return
	}
	adminListener, err := newListener(adminServer.Addr, nil)
	if err != nil {
		glog.Errorf("Error listening for TCP connections on %s: %v for admin server", adminServer.Addr, err)
		return
	}
	go runServer(mainServer, "Main", mainListener)
	go runServer(adminServer, "Admin", adminListener)

	wait(stopSignals, done, stopMain, stopAdmin)
}

func newAdminServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.Host + ":" + strconv.Itoa(cfg.AdminPort),
		Handler: handler,
	}
}

func newMainServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	var serverHandler = handler
	if cfg.EnableGzip {
		serverHandler = gziphandler.GzipHandler(handler)
	}

	return &http.Server{
		Addr:         cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Handler:      serverHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func runServer(server *http.Server, name string, listener net.Listener) error {
	if server == nil {
		return errors.New("server is nil")
	}
	if listener == nil {
		return errors.New("listener is nil")
	}

	glog.Infof("%s server starting on: %s", name, server.Addr)
	err := server.Serve(listener)
	glog.Errorf("%s server quit with error: %v", name, err)
	return err
}

func newListener(address string, metricsEngine metrics.MetricsEngine) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("Error listening for TCP connections on %s: %v", address, err)
	}

	if metricsEngine == nil {
		return ln, nil
	}

	casted, ok := ln.(*net.TCPListener)
	if !ok {
		glog.Warning("net.Listen(\"tcp\", \"addr\") didn't return a TCPListener. Connection metrics are disabled.")
		return ln, nil
	}
	return &monitorableListener{casted, metricsEngine}, nil
}

func wait(inbound <-chan os.Signal, done <-chan struct{}, outbound ...chan<- os.Signal) {
	sig := <-inbound

	for i := 0; i < len(outbound); i++ {
		go sendSignal(outbound[i], sig)
	}

	for i := 0; i < len(outbound); i++ {
		<-done
	}
}

func shutdownAfterSignals(server *http.Server, stopper <-chan os.Signal, done chan<- struct{}) {
	sig := <-stopper

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var s struct{}
	glog.Infof("Stopping %s because of signal: %s", server.Addr, sig.String())
	if err := server.Shutdown(ctx); err != nil {
		glog.Errorf("Failed to shutdown %s: %v", server.Addr, err)
	}
	done <- s
}

func sendSignal(to chan<- os.Signal, sig os.Signal) {
	to <- sig
}

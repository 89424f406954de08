package server

import (
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func handler(w http.ResponseWriter, req *http.Request) {
	w.Write([]byte(strings.Repeat("bid ", 512)))
}

func TestNewAdminServer(t *testing.T) {
	cfg := &config.Configuration{
		Host:      "bridge.example",
		AdminPort: 6060,
		Port:      8000,
	}
	server := newAdminServer(cfg, http.HandlerFunc(handler))
	assert.Equal(t, "bridge.example:6060", server.Addr)
}

func TestNewMainServer(t *testing.T) {
	cfg := &config.Configuration{
		Host:      "bridge.example",
		AdminPort: 6060,
		Port:      8000,
	}
	server := newMainServer(cfg, http.HandlerFunc(handler))
	assert.Equal(t, "bridge.example:8000", server.Addr)
	assert.Equal(t, 15*time.Second, server.ReadTimeout)
	assert.Equal(t, 15*time.Second, server.WriteTimeout)
}

func TestNewMainServerGzip(t *testing.T) {
	testCases := []struct {
		description      string
		enableGzip       bool
		expectedEncoding string
	}{
		{description: "enabled", enableGzip: true, expectedEncoding: "gzip"},
		{description: "disabled", enableGzip: false, expectedEncoding: ""},
	}

	for _, test := range testCases {
		server := newMainServer(&config.Configuration{EnableGzip: test.enableGzip}, http.HandlerFunc(handler))

		request := httptest.NewRequest(http.MethodGet, "/status", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()
		server.Handler.ServeHTTP(recorder, request)

		assert.Equal(t, test.expectedEncoding, recorder.Header().Get("Content-Encoding"), test.description)
		if test.enableGzip {
			reader, err := gzip.NewReader(recorder.Body)
			require.NoError(t, err, test.description)
			body, err := io.ReadAll(reader)
			require.NoError(t, err, test.description)
			assert.Equal(t, strings.Repeat("bid ", 512), string(body), test.description)
		}
	}
}

func TestServerShutdown(t *testing.T) {
	server := &http.Server{}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	stopper := make(chan os.Signal)
	done := make(chan struct{})
	go shutdownAfterSignals(server, stopper, done)
	go server.Serve(ln)

	stopper <- os.Interrupt
	<-done

	// If the test didn't hang, then we know server.Shutdown really _did_ return, and shutdownAfterSignals
	// passed the message along as expected.
}

func TestWait(t *testing.T) {
	inbound := make(chan os.Signal)
	chan1 := make(chan os.Signal)
	chan2 := make(chan os.Signal)
	done := make(chan struct{})

	go forwardSignal(t, done, chan1)
	go forwardSignal(t, done, chan2)

	go func(chan os.Signal) {
		inbound <- os.Interrupt
	}(inbound)

	wait(inbound, done, chan1, chan2)
	// If this doesn't hang, then wait() is sending and receiving messages as expected.
}

// forwardSignal is basically a working mock for shutdownAfterSignals().
// It is used to test wait() effectively
func forwardSignal(t *testing.T, outbound chan<- struct{}, inbound <-chan os.Signal) {
	var s struct{}
	sig := <-inbound
	assert.Equal(t, os.Interrupt, sig)
	outbound <- s
}

func TestRunServerRequiresServerAndListener(t *testing.T) {
	assert.Error(t, runServer(nil, "Main", nil))
	assert.Error(t, runServer(&http.Server{}, "Main", nil))
}

func TestMonitorableListener(t *testing.T) {
	me := &metrics.MetricsEngineMock{}
	opened := make(chan struct{}, 1)
	closed := make(chan struct{}, 1)
	me.On("RecordNewConnection").Run(func(_ mock.Arguments) { opened <- struct{}{} }).Return()
	me.On("RecordClosedConnection").Run(func(_ mock.Arguments) { closed <- struct{}{} }).Return()

	ln, err := newListener("127.0.0.1:0", me)
	require.NoError(t, err)
	defer ln.Close()
	require.IsType(t, &monitorableListener{}, ln)

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	<-opened
	<-closed
	me.AssertExpectations(t)
}

func TestNewListenerWithoutMetrics(t *testing.T) {
	ln, err := newListener("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer ln.Close()
	assert.IsType(t, &net.TCPListener{}, ln)
}

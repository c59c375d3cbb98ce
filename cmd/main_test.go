package main

import (
	"bytes"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"tw-vote-map/internal/logger"
)

func TestServeLogsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	var buf bytes.Buffer
	l := logger.SetupWriter(&buf, "info", "text")
	s := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	if err := serve(l, s, "", ""); err == nil {
		t.Fatal("expected bind error on an occupied address")
	}
	if !strings.Contains(buf.String(), "server_listen_error") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestServeClosedIsNil(t *testing.T) {
	var buf bytes.Buffer
	l := logger.SetupWriter(&buf, "info", "text")
	s := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	done := make(chan error, 1)
	go func() { done <- serve(l, s, "", "") }()
	time.Sleep(50 * time.Millisecond)
	_ = s.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("err = %v, want nil after Close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after Close")
	}
	if strings.Contains(buf.String(), "server_listen_error") {
		t.Errorf("closed server logged an error: %q", buf.String())
	}
}

// client_integration_test.go
//go:build integration
// +build integration

package client

import (
	"net/http"
	"testing"
)

var c = Client{
	Addr:   "http://localhost:8000",
	Client: http.Client{},
}

func TestHealthz(t *testing.T) {
	if ok, err := c.Healthz(); err != nil || !ok {
		t.Fail()
	}
}

func TestProcess(t *testing.T) {
	if s, err := c.Process("ping"); err != nil || s != "bhola ping" {
		t.Fail()
	}
}

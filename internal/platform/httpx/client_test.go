package httpx

import (
	"net/http"
	"testing"
	"time"
)

func TestNewClient_DefaultTimeoutAndTransport(t *testing.T) {
	client := NewClient(Options{})
	if client.Timeout != defaultClientTimeout {
		t.Fatalf("timeout = %v, want %v", client.Timeout, defaultClientTimeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type = %T, want *http.Transport", client.Transport)
	}
	if transport.MaxIdleConns != defaultMaxIdleConns {
		t.Fatalf("MaxIdleConns = %d, want %d", transport.MaxIdleConns, defaultMaxIdleConns)
	}
	if transport.MaxIdleConnsPerHost != defaultMaxIdleConnsPerHost {
		t.Fatalf("MaxIdleConnsPerHost = %d, want %d", transport.MaxIdleConnsPerHost, defaultMaxIdleConnsPerHost)
	}
	if transport.ResponseHeaderTimeout != defaultClientTimeout {
		t.Fatalf("ResponseHeaderTimeout = %v, want %v", transport.ResponseHeaderTimeout, defaultClientTimeout)
	}
}

func TestNewClient_CapsHeaderTimeoutAtTotal(t *testing.T) {
	client := NewClient(Options{Timeout: 2 * time.Second, ResponseHeaderTimeout: 10 * time.Second})
	transport := client.Transport.(*http.Transport)
	if transport.ResponseHeaderTimeout != 2*time.Second {
		t.Fatalf("ResponseHeaderTimeout = %v, want 2s", transport.ResponseHeaderTimeout)
	}
	if transport.TLSHandshakeTimeout != 2*time.Second {
		t.Fatalf("TLSHandshakeTimeout = %v, want 2s", transport.TLSHandshakeTimeout)
	}
}

func TestNewStreamingClient_NoTotalTimeout(t *testing.T) {
	client := NewStreamingClient(Options{Timeout: time.Second})
	if client.Timeout != 0 {
		t.Fatalf("timeout = %v, want 0", client.Timeout)
	}
	transport := client.Transport.(*http.Transport)
	if !transport.DisableCompression {
		t.Fatal("streaming transport must not decompress")
	}
	if transport.ResponseHeaderTimeout != defaultResponseHeaderTimeout {
		t.Fatalf("ResponseHeaderTimeout = %v, want %v", transport.ResponseHeaderTimeout, defaultResponseHeaderTimeout)
	}
}

func TestInstrumentedTransportWrapped(t *testing.T) {
	client := NewClient(Options{Instrument: true})
	if _, ok := client.Transport.(*http.Transport); ok {
		t.Fatal("instrumented client should wrap the transport")
	}
}

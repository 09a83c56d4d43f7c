package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestJWKSClientCachesAndThrottles(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "kid-1",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	c := NewJWKSClient(srv.URL, time.Minute)
	c.now = func() time.Time { return now }

	pub, err := c.Get("kid-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if pub.N.Cmp(key.N) != 0 || pub.E != key.E {
		t.Fatal("decoded key does not match")
	}
	if _, err := c.Get("kid-1"); err != nil || hits.Load() != 1 {
		t.Fatalf("expected cached key, hits=%d err=%v", hits.Load(), err)
	}
	if _, err := c.Get("unknown"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("unknown kid inside refresh gap should not refetch, hits=%d", hits.Load())
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Get("kid-1"); err != nil || hits.Load() != 2 {
		t.Fatalf("expected refetch after ttl, hits=%d err=%v", hits.Load(), err)
	}
}

func TestJWKSClientKeepsStaleKeyOnFailure(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "kid-1",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	c := NewJWKSClient(srv.URL, time.Minute)
	c.now = func() time.Time { return now }
	if _, err := c.Get("kid-1"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	down.Store(true)
	now = now.Add(5 * time.Minute)
	if _, err := c.Get("kid-1"); err != nil {
		t.Fatalf("expected stale key while endpoint is down, got %v", err)
	}
	if _, err := c.Get("kid-2"); err == nil {
		t.Fatal("expected error for unknown kid while endpoint is down")
	}
}

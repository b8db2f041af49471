package app

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"testing"
	"time"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("WAGERVAULT_DB_PATH", dir+"/wagervault.db")
	t.Setenv("WAGERVAULT_LEDGER_DB_PATH", dir+"/ledger.db")
	t.Setenv("WAGERVAULT_IDENTITY_ISSUER", "https://accounts.test")
	t.Setenv("WAGERVAULT_IDENTITY_AUDIENCE", "wagervault")
	t.Setenv("WAGERVAULT_IDENTITY_PUBLIC_KEY", base64.StdEncoding.EncodeToString(pub))
}

func TestServerServesHealthAndShutsDown(t *testing.T) {
	setTestEnv(t)

	server, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ctx)
	}()

	url := "http://" + server.Addr() + "/healthz"
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("healthz status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("health check never became ready: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewWithAddrRequiresIdentityConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WAGERVAULT_DB_PATH", dir+"/wagervault.db")
	t.Setenv("WAGERVAULT_LEDGER_DB_PATH", dir+"/ledger.db")
	t.Setenv("WAGERVAULT_IDENTITY_ISSUER", "")
	t.Setenv("WAGERVAULT_IDENTITY_AUDIENCE", "")
	t.Setenv("WAGERVAULT_IDENTITY_PUBLIC_KEY", "")

	if _, err := NewWithAddr("127.0.0.1:0"); err == nil {
		t.Fatal("expected error without identity configuration")
	}
}

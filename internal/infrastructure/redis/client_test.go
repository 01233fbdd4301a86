package redis

import (
	"context"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Set(ctx, "probe", "1", 0).Err(); err != nil {
		t.Fatalf("write through client failed: %v", err)
	}
	got, err := mr.Get("probe")
	if err != nil {
		t.Fatalf("reading probe key: %v", err)
	}
	if got != "1" {
		t.Fatalf("probe key = %q, want 1", got)
	}
}

func TestNewClientRejectsMalformedURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url")
	if err == nil {
		t.Fatal("expected error for malformed URL")
	}
	if !strings.Contains(err.Error(), "parse redis URL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNewClientFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), url)
	if err == nil {
		t.Fatal("expected ping error when server is down")
	}
	if !strings.Contains(err.Error(), "ping redis") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

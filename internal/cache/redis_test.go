package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
)

type countingSource struct {
	calls int
	ex    *models.Exchange
	err   error
}

func (s *countingSource) GetByID(context.Context, string) (*models.Exchange, error) {
	s.calls++
	return s.ex, s.err
}

func newTestCache(t *testing.T, src ExchangeSource) (*ExchangeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewExchangeCache(client, src, time.Minute, logging.Nop()), mr
}

func TestGetByIDReadsThrough(t *testing.T) {
	src := &countingSource{ex: &models.Exchange{ExchangeID: "nyse", Timezone: "America/New_York", Start: "09:30", End: "16:00"}}
	c, mr := newTestCache(t, src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ex, err := c.GetByID(ctx, "nyse")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if ex == nil || ex.Timezone != "America/New_York" {
			t.Fatalf("exchange = %+v", ex)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
	if ttl := mr.TTL("exchange:nyse"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	if err := c.invalidate(ctx, "nyse"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.GetByID(ctx, "nyse"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source calls after invalidate = %d, want 2", src.calls)
	}
}

func TestGetByIDDoesNotCacheMissing(t *testing.T) {
	src := &countingSource{}
	c, mr := newTestCache(t, src)

	ex, err := c.GetByID(context.Background(), "ghost")
	if err != nil || ex != nil {
		t.Fatalf("GetByID = %+v, %v", ex, err)
	}
	if mr.Exists("exchange:ghost") {
		t.Fatal("missing exchange was cached")
	}
}

func TestGetByIDPropagatesSourceError(t *testing.T) {
	boom := errors.New("db down")
	c, _ := newTestCache(t, &countingSource{err: boom})
	if _, err := c.GetByID(context.Background(), "nyse"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetByIDFallsThroughWhenRedisIsDown(t *testing.T) {
	src := &countingSource{ex: &models.Exchange{ExchangeID: "lse"}}
	c, mr := newTestCache(t, src)
	mr.Close()

	ex, err := c.GetByID(context.Background(), "lse")
	if err != nil || ex == nil || ex.ExchangeID != "lse" {
		t.Fatalf("GetByID = %+v, %v", ex, err)
	}
}

func TestGetByIDDropsUndecodableEntry(t *testing.T) {
	src := &countingSource{}
	c, mr := newTestCache(t, src)
	if err := mr.Set("exchange:gone", "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ex, err := c.GetByID(context.Background(), "gone")
	if err != nil || ex != nil {
		t.Fatalf("GetByID = %+v, %v", ex, err)
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
	if mr.Exists("exchange:gone") {
		t.Fatal("undecodable entry left in the cache")
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

// runStoreContract exercises the handoff.Store contract against a backend.
func runStoreContract(t *testing.T, newStore func(t *testing.T) handoff.Store) {
	t.Run("InsertAndFind", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := newRecord("id-1", "ABC234", "riverside")

		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, err := s.FindByCodeAndStore(ctx, "ABC234", "riverside")
		if err != nil {
			t.Fatalf("FindByCodeAndStore: %v", err)
		}
		if got.ID != rec.ID || got.Status != handoff.StatusOpen {
			t.Fatalf("unexpected record: %+v", got)
		}
		if len(got.Items) != 2 || got.Items[0].VariantID != "gid://shopify/ProductVariant/101" || got.Items[1].Quantity != 3 {
			t.Fatalf("items not round-tripped: %+v", got.Items)
		}
		if !got.ExpiresAt.Equal(rec.ExpiresAt) || !got.CreatedAt.Equal(rec.CreatedAt) {
			t.Fatalf("timestamps not round-tripped: %v %v", got.ExpiresAt, got.CreatedAt)
		}
		if got.ClaimedAt != nil || got.ClaimedByStaffID != "" {
			t.Fatalf("new record should be unclaimed: %+v", got)
		}
		if got.CustomerSessionID != "sess-1" || got.Source != handoff.SourcePriceChecker {
			t.Fatalf("metadata not round-tripped: %+v", got)
		}
	})

	t.Run("FindWrongStore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Insert(ctx, newRecord("id-1", "ABC234", "riverside")); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if _, err := s.FindByCodeAndStore(ctx, "ABC234", "downtown"); !errors.Is(err, handoff.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.FindByCodeAndStore(ctx, "ZZZ999", "riverside"); !errors.Is(err, handoff.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Insert(ctx, newRecord("id-1", "ABC234", "riverside")); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		err := s.Insert(ctx, newRecord("id-2", "ABC234", "riverside"))
		if !errors.Is(err, handoff.ErrDuplicateCode) {
			t.Fatalf("expected ErrDuplicateCode, got %v", err)
		}
		got, err := s.FindByCodeAndStore(ctx, "ABC234", "riverside")
		if err != nil || got.ID != "id-1" {
			t.Fatalf("original record should be untouched, got %+v %v", got, err)
		}
	})

	t.Run("ConditionalUpdate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Insert(ctx, newRecord("id-1", "ABC234", "riverside")); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		claimedAt := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
		updated, err := s.ConditionalUpdate(ctx, "id-1", handoff.StatusOpen, handoff.Patch{
			Status:           handoff.StatusClaimed,
			ClaimedAt:        &claimedAt,
			ClaimedByStaffID: "alice",
		})
		if err != nil {
			t.Fatalf("ConditionalUpdate: %v", err)
		}
		if updated.Status != handoff.StatusClaimed || updated.ClaimedByStaffID != "alice" {
			t.Fatalf("unexpected updated record: %+v", updated)
		}
		if updated.ClaimedAt == nil || !updated.ClaimedAt.Equal(claimedAt) {
			t.Fatalf("claimed_at mismatch: %v", updated.ClaimedAt)
		}
		if len(updated.Items) != 2 {
			t.Fatalf("updated record should carry items, got %+v", updated.Items)
		}

		_, err = s.ConditionalUpdate(ctx, "id-1", handoff.StatusOpen, handoff.Patch{Status: handoff.StatusExpired})
		if !errors.Is(err, handoff.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
		got, _ := s.FindByCodeAndStore(ctx, "ABC234", "riverside")
		if got.Status != handoff.StatusClaimed {
			t.Fatalf("claimed status must not be overwritten, got %s", got.Status)
		}
	})

	t.Run("ConditionalUpdateMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.ConditionalUpdate(context.Background(), "nope", handoff.StatusOpen, handoff.Patch{Status: handoff.StatusExpired})
		if !errors.Is(err, handoff.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("ConcurrentConditionalUpdate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Insert(ctx, newRecord("id-1", "ABC234", "riverside")); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		const workers = 12
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			noMatch   int
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				now := time.Now().UTC()
				_, err := s.ConditionalUpdate(ctx, "id-1", handoff.StatusOpen, handoff.Patch{
					Status:           handoff.StatusClaimed,
					ClaimedAt:        &now,
					ClaimedByStaffID: fmt.Sprintf("staff-%d", i),
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, handoff.ErrNoMatch):
					noMatch++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		if successes != 1 || noMatch != workers-1 {
			t.Fatalf("expected 1 success and %d no-match, got %d and %d", workers-1, successes, noMatch)
		}
	})
}

func newRecord(id, code, storeID string) *handoff.Record {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &handoff.Record{
		ID:      id,
		Code:    code,
		StoreID: storeID,
		Status:  handoff.StatusOpen,
		Items: []handoff.Item{
			{VariantID: "gid://shopify/ProductVariant/101", SKU: "SKU-1", Title: "Garden Hose", Quantity: 1},
			{Barcode: "0123456789012", Title: "Trowel", Quantity: 3},
		},
		CustomerSessionID: "sess-1",
		Source:            handoff.SourcePriceChecker,
		ExpiresAt:         created.Add(time.Hour),
		CreatedAt:         created,
	}
}

package store

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

func newTestDynamo(t *testing.T) (*Dynamo, *mockDynamo) {
	t.Helper()
	mock := newMockDynamo()
	return NewDynamo(mock, "pos_handoffs", "pos_handoff_codes"), mock
}

func TestDynamoStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) handoff.Store {
		s, _ := newTestDynamo(t)
		return s
	})
}

func TestDynamoInsertWritesReservation(t *testing.T) {
	s, mock := newTestDynamo(t)
	if err := s.Insert(context.Background(), newRecord("id-1", "ABC234", "riverside")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if mock.transactCalls != 1 {
		t.Fatalf("expected 1 transact call, got %d", mock.transactCalls)
	}
	res, ok := mock.tables["pos_handoff_codes"]["ABC234"]
	if !ok {
		t.Fatal("code reservation not written")
	}
	if id := res["id"].(*types.AttributeValueMemberS).Value; id != "id-1" {
		t.Fatalf("reservation points to %q", id)
	}
	item, ok := mock.tables["pos_handoffs"]["id-1"]
	if !ok {
		t.Fatal("handoff record not written")
	}

	// Both items carry the same TTL, retention past expiry.
	rec := newRecord("id-1", "ABC234", "riverside")
	want := strconv.FormatInt(rec.ExpiresAt.Add(DefaultRetention).Unix(), 10)
	if got := item["purge_at"].(*types.AttributeValueMemberN).Value; got != want {
		t.Fatalf("handoff purge_at = %s, want %s", got, want)
	}
	if got := res["purge_at"].(*types.AttributeValueMemberN).Value; got != want {
		t.Fatalf("reservation purge_at = %s, want %s", got, want)
	}
}

func TestDynamoInsertOtherCancellation(t *testing.T) {
	s, mock := newTestDynamo(t)
	throttled := "ThrottlingError"
	none := "None"
	mock.transactErr = &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: &none}, {Code: &throttled}},
	}

	err := s.Insert(context.Background(), newRecord("id-1", "ABC234", "riverside"))
	if err == nil || errors.Is(err, handoff.ErrDuplicateCode) {
		t.Fatalf("expected non-duplicate error, got %v", err)
	}
}

func TestDynamoDuplicateCodeAcrossStores(t *testing.T) {
	s, _ := newTestDynamo(t)
	ctx := context.Background()
	if err := s.Insert(ctx, newRecord("id-1", "ABC234", "riverside")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := s.Insert(ctx, newRecord("id-2", "ABC234", "downtown"))
	if !errors.Is(err, handoff.ErrDuplicateCode) {
		t.Fatalf("codes are global, expected ErrDuplicateCode, got %v", err)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/pos-handoff/internal/aws"
	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

// DefaultRetention is how long after expiry DynamoDB TTL keeps a handoff
// and its code reservation. Once purged, a code can be issued again.
const DefaultRetention = 30 * 24 * time.Hour

// codeReservation is the item in the codes table. Its primary key is the
// handoff code, which makes the code globally unique.
type codeReservation struct {
	Code      string    `dynamodbav:"handoff_code"` // PK
	HandoffID string    `dynamodbav:"id"`
	StoreID   string    `dynamodbav:"store_id"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	PurgeAt   int64     `dynamodbav:"purge_at"` // TTL epoch seconds
}

// Dynamo stores handoffs in two DynamoDB tables: records keyed by id and
// code reservations keyed by code, written together in one transaction.
type Dynamo struct {
	client       aws.DynamoDBAPI
	handoffTable string
	codesTable   string
	retention    time.Duration
}

// NewDynamo returns a DynamoDB-backed handoff store.
func NewDynamo(client aws.DynamoDBAPI, handoffTable, codesTable string) *Dynamo {
	return &Dynamo{
		client:       client,
		handoffTable: handoffTable,
		codesTable:   codesTable,
		retention:    DefaultRetention,
	}
}

// Insert reserves the code and writes the record atomically. A reservation
// that already exists cancels the transaction with ErrDuplicateCode.
func (d *Dynamo) Insert(ctx context.Context, rec *handoff.Record) error {
	purgeAt := rec.ExpiresAt.Add(d.retention).Unix()
	recMap, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal handoff: %w", err)
	}
	recMap["purge_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(purgeAt, 10)}
	codeMap, err := attributevalue.MarshalMap(codeReservation{
		Code:      rec.Code,
		HandoffID: rec.ID,
		StoreID:   rec.StoreID,
		CreatedAt: rec.CreatedAt,
		PurgeAt:   purgeAt,
	})
	if err != nil {
		return fmt.Errorf("marshal code reservation: %w", err)
	}

	_, err = d.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &d.codesTable,
					Item:                codeMap,
					ConditionExpression: awsString("attribute_not_exists(handoff_code)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &d.handoffTable,
					Item:                recMap,
					ConditionExpression: awsString("attribute_not_exists(id)"),
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) && codeConflict(tce) {
			return handoff.ErrDuplicateCode
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// codeConflict reports whether the code reservation (first transact item)
// failed its condition.
func codeConflict(tce *types.TransactionCanceledException) bool {
	if len(tce.CancellationReasons) == 0 {
		return false
	}
	reason := tce.CancellationReasons[0]
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}

func (d *Dynamo) FindByCodeAndStore(ctx context.Context, code, storeID string) (*handoff.Record, error) {
	out, err := d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &d.codesTable,
		Key:            map[string]types.AttributeValue{"handoff_code": &types.AttributeValueMemberS{Value: code}},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get code reservation: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, handoff.ErrNotFound
	}
	var res codeReservation
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, fmt.Errorf("unmarshal code reservation: %w", err)
	}
	if res.StoreID != storeID {
		return nil, handoff.ErrNotFound
	}

	rec, err := d.get(ctx, res.HandoffID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, handoff.ErrNotFound
	}
	return rec, nil
}

// get fetches a record by id. Returns (nil, nil) if not found.
func (d *Dynamo) get(ctx context.Context, id string) (*handoff.Record, error) {
	out, err := d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &d.handoffTable,
		Key:            map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get handoff: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec handoff.Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal handoff: %w", err)
	}
	return &rec, nil
}

// ConditionalUpdate uses a ConditionExpression on status, so DynamoDB
// rejects every writer but the first that still sees the expected status.
func (d *Dynamo) ConditionalUpdate(ctx context.Context, id string, expected handoff.Status, patch handoff.Patch) (*handoff.Record, error) {
	updateExpr := "SET #s = :new"
	values := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: string(patch.Status)},
		":expected": &types.AttributeValueMemberS{Value: string(expected)},
	}
	if patch.ClaimedAt != nil {
		ca, err := attributevalue.Marshal(*patch.ClaimedAt)
		if err != nil {
			return nil, fmt.Errorf("marshal claimed_at: %w", err)
		}
		updateExpr += ", claimed_at = :ca"
		values[":ca"] = ca
	}
	if patch.ClaimedByStaffID != "" {
		updateExpr += ", claimed_by_staff_id = :cb"
		values[":cb"] = &types.AttributeValueMemberS{Value: patch.ClaimedByStaffID}
	}

	out, err := d.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &d.handoffTable,
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:          &updateExpr,
		ConditionExpression:       awsString("#s = :expected"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, handoff.ErrNoMatch
		}
		return nil, fmt.Errorf("update handoff: %w", err)
	}

	var rec handoff.Record
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal updated handoff: %w", err)
	}
	return &rec, nil
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }

package store

import (
	"context"
	"errors"
	"maps"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableKeys maps each mocked table to its partition key attribute.
var tableKeys = map[string]string{
	"pos_handoffs":      "id",
	"pos_handoff_codes": "handoff_code",
}

// mockDynamo is a small in-memory DynamoDB covering the expressions the
// handoff store issues.
type mockDynamo struct {
	mu            sync.Mutex
	tables        map[string]map[string]map[string]types.AttributeValue
	transactCalls int
	updateCalls   int
	transactErr   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) keyOf(table string, item map[string]types.AttributeValue) (string, error) {
	attr, ok := tableKeys[table]
	if !ok {
		return "", errors.New("unknown table " + table)
	}
	v, ok := item[attr].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing key " + attr)
	}
	return v.Value, nil
}

func (m *mockDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		m.tables[name] = t
	}
	return t
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(*params.TableName, params.Item)
	if err != nil {
		return nil, err
	}
	m.table(*params.TableName)[k] = maps.Clone(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table(*params.TableName)[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: maps.Clone(item)}, nil
}

// UpdateItem supports the "#s = :expected" condition with SET of :new, :ca
// and :cb.
func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	k, err := m.keyOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	tbl := m.table(*params.TableName)
	item, ok := tbl[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "#s = :expected" {
		current, _ := item["status"].(*types.AttributeValueMemberS)
		expected, _ := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
		if current == nil || expected == nil || current.Value != expected.Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	updated := maps.Clone(item)
	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		updated["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ca"]; ok {
		updated["claimed_at"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":cb"]; ok {
		updated["claimed_by_staff_id"] = v
	}
	tbl[k] = updated
	return &dyn.UpdateItemOutput{Attributes: maps.Clone(updated)}, nil
}

// TransactWriteItems applies puts all-or-nothing and reports per-item
// cancellation reasons the way DynamoDB does.
func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++
	if m.transactErr != nil {
		return nil, m.transactErr
	}

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	keys := make([]string, len(params.TransactItems))
	for i, it := range params.TransactItems {
		none := "None"
		reasons[i] = types.CancellationReason{Code: &none}
		p := it.Put
		if p == nil {
			continue
		}
		k, err := m.keyOf(*p.TableName, p.Item)
		if err != nil {
			return nil, err
		}
		keys[i] = k
		if p.ConditionExpression == nil {
			continue
		}
		if _, exists := m.table(*p.TableName)[k]; exists {
			code := "ConditionalCheckFailed"
			reasons[i] = types.CancellationReason{Code: &code}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}
	for i, it := range params.TransactItems {
		if p := it.Put; p != nil {
			m.table(*p.TableName)[keys[i]] = maps.Clone(p.Item)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

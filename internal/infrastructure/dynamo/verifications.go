package dynamo

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-api/internal/domain"
	"github.com/go-notify-api/internal/pkg/id"
)

// VerificationTokenRepo stores email verification tokens.
// PK: contact_details_id, so a contact record owns at most one token.
// GSI token_id-index resolves confirmation links.
type VerificationTokenRepo struct {
	client    API
	tableName string

	mu      sync.Mutex
	pending map[string]string // contact_details_id -> deleted token_id
}

func NewVerificationTokenRepo(client API, tableName string) *VerificationTokenRepo {
	return &VerificationTokenRepo{
		client:    client,
		tableName: tableName,
		pending:   make(map[string]string),
	}
}

func (r *VerificationTokenRepo) FindOneByOwner(ctx context.Context, contactID string) (*domain.VerificationToken, error) {
	t, err := r.getByOwner(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
	}
	return t, nil
}

// FindByID reads the GSI, then re-reads the owner row consistently so a token
// deleted after the index was last updated is not returned.
func (r *VerificationTokenRepo) FindByID(ctx context.Context, tokenID string) (*domain.VerificationToken, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexTokenID),
		KeyConditionExpression:    aws.String("#t = :v"),
		ExpressionAttributeNames:  map[string]string{"#t": fieldTokenID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: tokenID}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, storageErr("query verification token", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
	}
	var indexed domain.VerificationToken
	if err := attributevalue.UnmarshalMap(out.Items[0], &indexed); err != nil {
		return nil, fmt.Errorf("unmarshal verification token: %w", err)
	}

	t, err := r.getByOwner(ctx, indexed.ContactDetailsID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.TokenID != tokenID {
		return nil, fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
	}
	return t, nil
}

// Delete removes t only while it is still the owner's current token. A token
// already replaced or removed is not an error.
func (r *VerificationTokenRepo) Delete(ctx context.Context, t *domain.VerificationToken) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldContactDetailsID, t.ContactDetailsID),
		ConditionExpression:       aws.String("#t = :tid"),
		ExpressionAttributeNames:  map[string]string{"#t": fieldTokenID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":tid": &types.AttributeValueMemberS{Value: t.TokenID}},
	})
	if isConditionFailed(err) {
		return nil
	}
	if err != nil {
		return storageErr("delete verification token", err)
	}
	r.mu.Lock()
	r.pending[t.ContactDetailsID] = t.TokenID
	r.mu.Unlock()
	return nil
}

// Flush confirms with a consistent read that the delete of contactID's token
// issued through this repo is visible before the caller writes again.
func (r *VerificationTokenRepo) Flush(ctx context.Context, contactID string) error {
	r.mu.Lock()
	tokenID, ok := r.pending[contactID]
	delete(r.pending, contactID)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	t, err := r.getByOwner(ctx, contactID)
	if err != nil {
		return err
	}
	if t != nil && t.TokenID == tokenID {
		return storageErr("flush verification token delete", fmt.Errorf("token %s still present", tokenID))
	}
	return nil
}

// Save inserts t, assigning a token id when it has none. It fails with
// domain.ErrConflict while the owner already has a token.
func (r *VerificationTokenRepo) Save(ctx context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error) {
	saved := *t
	if saved.TokenID == "" {
		saved.TokenID = id.New()
	}
	item, err := attributevalue.MarshalMap(saved)
	if err != nil {
		return nil, fmt.Errorf("marshal verification token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#o)"),
		ExpressionAttributeNames: map[string]string{"#o": fieldContactDetailsID},
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("token for contact %s already exists: %w", saved.ContactDetailsID, domain.ErrConflict)
	}
	if err != nil {
		return nil, storageErr("put verification token", err)
	}
	return &saved, nil
}

func (r *VerificationTokenRepo) getByOwner(ctx context.Context, contactID string) (*domain.VerificationToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldContactDetailsID, contactID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageErr("get verification token", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var t domain.VerificationToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal verification token: %w", err)
	}
	return &t, nil
}

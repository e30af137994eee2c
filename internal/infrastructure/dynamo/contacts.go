package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-notify-api/internal/domain"
)

// ContactDetailsRepo provides typed DynamoDB operations for contact records.
// PK: reference_data_user_id.
type ContactDetailsRepo struct {
	client    API
	tableName string
}

func NewContactDetailsRepo(client API, tableName string) *ContactDetailsRepo {
	return &ContactDetailsRepo{client: client, tableName: tableName}
}

func (r *ContactDetailsRepo) Put(ctx context.Context, c *domain.UserContactDetails) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal contact details: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storageErr("put contact details", err)
	}
	return nil
}

func (r *ContactDetailsRepo) Get(ctx context.Context, contactID string) (*domain.UserContactDetails, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldReferenceUserID, contactID),
	})
	if err != nil {
		return nil, storageErr("get contact details", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("contact details not found: %w", domain.ErrNotFound)
	}
	var c domain.UserContactDetails
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal contact details: %w", err)
	}
	return &c, nil
}

// MarkEmailVerified stores email as the verified address of the record.
func (r *ContactDetailsRepo) MarkEmailVerified(ctx context.Context, contactID, email string) error {
	ue, err := buildUpdateExpr(
		setClause{fieldEmailDetails, domain.EmailDetails{Email: email, Verified: true}},
		setClause{fieldUpdatedAt, time.Now().UTC()},
	)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldReferenceUserID, contactID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(" + fieldReferenceUserID + ")"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("contact details not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("update contact details", err)
	}
	return nil
}

package dynamo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notify-api/internal/domain"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// setClause assigns value to attribute attr.
type setClause struct {
	attr  string
	value any
}

// updateExpr is a SET expression with its placeholder maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr renders clauses, in the order given, as one SET expression.
// Placeholders are named after the attribute: #email_details = :email_details.
func buildUpdateExpr(clauses ...setClause) (updateExpr, error) {
	if len(clauses) == 0 {
		return updateExpr{}, errors.New("update needs at least one attribute")
	}
	ue := updateExpr{
		Names:  make(map[string]string, len(clauses)),
		Values: make(map[string]types.AttributeValue, len(clauses)),
	}
	assignments := make([]string, 0, len(clauses))
	for _, c := range clauses {
		name, value := "#"+c.attr, ":"+c.attr
		if _, dup := ue.Names[name]; dup {
			return updateExpr{}, fmt.Errorf("attribute %s set twice", c.attr)
		}
		av, err := attributevalue.Marshal(c.value)
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal attribute %s: %w", c.attr, err)
		}
		ue.Names[name] = c.attr
		ue.Values[value] = av
		assignments = append(assignments, name+" = "+value)
	}
	ue.Expr = "SET " + strings.Join(assignments, ", ")
	return ue, nil
}

// storageErr tags a driver failure with domain.ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

package domain

import "time"

// TokenValidity is how long an email verification token stays usable.
const TokenValidity = 12 * time.Hour

// VerificationToken proves control of a candidate email address.
// At most one token exists per contact record: PK contact_details_id.
// ExpiresAt doubles as the DynamoDB TTL attribute (Unix seconds).
type VerificationToken struct {
	TokenID          string `json:"id" dynamodbav:"token_id"`
	ContactDetailsID string `json:"contact_details_id" dynamodbav:"contact_details_id"`
	EmailAddress     string `json:"email_address" dynamodbav:"email_address"`
	ExpiresAt        int64  `json:"expires_at" dynamodbav:"expires_at"`
}

// ExpiryTime returns ExpiresAt as a time.Time.
func (t *VerificationToken) ExpiryTime() time.Time {
	return time.Unix(t.ExpiresAt, 0).UTC()
}

// Expired reports whether the token is no longer valid at now.
func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiryTime())
}

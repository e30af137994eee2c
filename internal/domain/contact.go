package domain

import "time"

// EmailDetails is the verified email stored on a contact record.
type EmailDetails struct {
	Email    string `json:"email" dynamodbav:"email"`
	Verified bool   `json:"email_verified" dynamodbav:"email_verified"`
}

// UserContactDetails holds the contact points of a directory user.
// Its identity is the directory user id (PK reference_data_user_id).
type UserContactDetails struct {
	ReferenceDataUserID string        `json:"reference_data_user_id" dynamodbav:"reference_data_user_id"`
	PhoneNumber         *string       `json:"phone_number,omitempty" dynamodbav:"phone_number"`
	EmailDetails        *EmailDetails `json:"email_details,omitempty" dynamodbav:"email_details"`
	AllowNotify         bool          `json:"allow_notify" dynamodbav:"allow_notify"`
	Active              bool          `json:"active" dynamodbav:"active"`
	UpdatedAt           time.Time     `json:"updated" dynamodbav:"updated_at"`
}

// ID returns the contact record identifier used in verification links.
func (c *UserContactDetails) ID() string {
	return c.ReferenceDataUserID
}

// VerifiedEmail returns the verified email address, or "" when there is none.
func (c *UserContactDetails) VerifiedEmail() string {
	if c.EmailDetails == nil || !c.EmailDetails.Verified {
		return ""
	}
	return c.EmailDetails.Email
}

// VerificationRequest is the body of a contact email verification request.
type VerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

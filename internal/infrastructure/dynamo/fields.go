package dynamo

// DynamoDB attribute and index names shared by the repos and Bootstrap.
const (
	fieldUserID           = "user_id"
	fieldContactDetailsID = "contact_details_id"
	fieldReferenceUserID  = "reference_data_user_id"
	fieldTokenID          = "token_id"
	fieldEmailDetails     = "email_details"
	fieldUpdatedAt        = "updated_at"
	fieldExpiresAt        = "expires_at"

	indexTokenID = "token_id-index"
)

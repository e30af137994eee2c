package domain

// User is the directory profile of a notification recipient.
type User struct {
	UserID    string `json:"id" dynamodbav:"user_id"`
	Username  string `json:"username" dynamodbav:"username"`
	FirstName string `json:"first_name" dynamodbav:"first_name"`
	LastName  string `json:"last_name" dynamodbav:"last_name"`
	Active    bool   `json:"active" dynamodbav:"active"`
}

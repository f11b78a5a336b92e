package domain

// User 市集用戶, 由外部身份服務建立; messaging 只讀
type User struct {
	ID     int64
	UserID string
	Email  string
	Name   string
	Role   string
}

// UserQuery optional filters for user lookup
type UserQuery struct {
	ID     *int64
	UserID *string
	Email  *string
}

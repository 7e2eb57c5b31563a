package model

type User struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// Requester is the authenticated identity behind the current call.
type Requester struct {
	Username string
}

package domain

type Profile struct {
	UserID      string `json:"userId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	ImageURL    string `json:"profileImage,omitempty"`
}

type DeliveryAddress struct {
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

// Shopper identifies the authenticated user driving a request. Token is the
// bearer token forwarded to the remote API.
type Shopper struct {
	UserID string
	Name   string
	Role   string
	Token  string
}

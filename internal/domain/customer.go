package domain

// CustomerInfo is the best-effort customer identification extracted from a
// webhook payload. A field is either a non-empty value or the empty string;
// empty fields never overwrite stored data.
type CustomerInfo struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// IsEmpty reports whether no field was extracted at all.
func (c CustomerInfo) IsEmpty() bool {
	return c.Email == "" && c.Phone == "" && c.FullName == ""
}

package domain

import "time"

// Session records one login of a user; LogoutTime stays nil while open.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	LoginTime  time.Time  `json:"loginTime"`
	LogoutTime *time.Time `json:"logoutTime,omitempty"`
}

// Open reports whether the session has not been logged out.
func (s Session) Open() bool {
	return s.LogoutTime == nil
}

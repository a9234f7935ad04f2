package model

import "time"

// Session is the pointer to the currently logged in profile
type Session struct {
	UserID    UserID
	StartedAt time.Time
}

package model

import "time"

// Role is the projection-facing view of the admin flag
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// PlayerProfile is a display projection of a UserProfile. It is never
// authoritative: only Email lives here and nowhere else.
type PlayerProfile struct {
	UserID      UserID     `json:"userId"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	Genres      []string   `json:"genres,omitempty"`
	Games       []string   `json:"games,omitempty"`
	PlayerType  PlayerType `json:"playerType,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// PlayerProfileFromUser builds the projection for a user profile
func PlayerProfileFromUser(u UserProfile, email string) PlayerProfile {
	role := RolePlayer
	if u.IsAdmin {
		role = RoleAdmin
	}
	return PlayerProfile{
		UserID:      u.ID,
		DisplayName: u.Name,
		Email:       email,
		Role:        role,
		Genres:      cloneStrings(u.Genres),
		Games:       cloneStrings(u.Games),
		PlayerType:  u.PlayerType,
		CreatedAt:   u.CreatedAt,
	}
}

// PlayerProfilePatch is an edit made through the projection
type PlayerProfilePatch struct {
	DisplayName *string     `json:"displayName,omitempty"`
	Email       *string     `json:"email,omitempty"`
	Genres      *[]string   `json:"genres,omitempty"`
	Games       *[]string   `json:"games,omitempty"`
	PlayerType  *PlayerType `json:"playerType,omitempty"`
}

// IdentityPatch returns the part of the patch tracked by the identity record
func (p PlayerProfilePatch) IdentityPatch() ProfilePatch {
	return ProfilePatch{
		Genres:     p.Genres,
		Games:      p.Games,
		PlayerType: p.PlayerType,
	}
}

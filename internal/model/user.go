package model

import (
	"strings"
	"time"
)

// UserID uniquely identifies a user profile
type UserID string

// PlayerType describes how a user plays
type PlayerType string

const (
	PlayerTypeCasual      PlayerType = "casual"
	PlayerTypeCompetitive PlayerType = "competitive"
	PlayerTypeCollector   PlayerType = "collector"
	PlayerTypeCreator     PlayerType = "creator"
)

// ValidPlayerTypes returns every known player type
func ValidPlayerTypes() []PlayerType {
	return []PlayerType{PlayerTypeCasual, PlayerTypeCompetitive, PlayerTypeCollector, PlayerTypeCreator}
}

// UserProfile is the authoritative identity record
type UserProfile struct {
	ID         UserID     `json:"id"`
	Name       string     `json:"name"`
	Credential string     `json:"credential,omitempty"` // opaque, compared as-is unless hashing is enabled
	CreatedAt  time.Time  `json:"createdAt"`
	IsAdmin    bool       `json:"isAdmin,omitempty"`
	Genres     []string   `json:"genres,omitempty"`
	Games      []string   `json:"games,omitempty"`
	PlayerType PlayerType `json:"playerType,omitempty"`
}

// HasCredential reports whether a credential is stored for the profile
func (u *UserProfile) HasCredential() bool {
	return u.Credential != ""
}

// Clone returns a deep copy
func (u UserProfile) Clone() UserProfile {
	u.Genres = cloneStrings(u.Genres)
	u.Games = cloneStrings(u.Games)
	return u
}

// ProfilePatch is a partial update of a profile's descriptive fields.
// ID, name and credential are deliberately absent.
type ProfilePatch struct {
	Genres     *[]string   `json:"genres,omitempty"`
	Games      *[]string   `json:"games,omitempty"`
	PlayerType *PlayerType `json:"playerType,omitempty"`
}

// Apply merges the patch into the profile
func (p ProfilePatch) Apply(u *UserProfile) {
	if p.Genres != nil {
		u.Genres = cloneStrings(*p.Genres)
	}
	if p.Games != nil {
		u.Games = cloneStrings(*p.Games)
	}
	if p.PlayerType != nil {
		u.PlayerType = *p.PlayerType
	}
}

// NormalizeName trims and case-folds a display name for comparisons
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

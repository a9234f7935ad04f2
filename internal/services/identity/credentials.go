package identity

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CredentialComparer turns a submitted credential into its stored form and
// checks submissions against it
type CredentialComparer interface {
	Prepare(credential string) (string, error)
	Matches(stored, submitted string) bool
}

// PlainComparer stores credentials as given and compares them exactly
type PlainComparer struct{}

func (PlainComparer) Prepare(credential string) (string, error) {
	return credential, nil
}

func (PlainComparer) Matches(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// BcryptComparer stores bcrypt hashes
type BcryptComparer struct {
	Cost int
}

func (c BcryptComparer) Prepare(credential string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptComparer) Matches(stored, submitted string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}

package api

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"github.com/google/uuid"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	sessionIDPrefix = "sess_"
	messageIDPrefix = "msg_"
)

var messageIDPattern = regexp.MustCompile(`^msg_[a-zA-Z0-9]{24}$`)

// NewSessionID generates a new session ID with the "sess_" prefix
// followed by a random UUID.
func NewSessionID() string {
	return sessionIDPrefix + uuid.NewString()
}

// NewMessageID generates a new message ID with the "msg_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewMessageID() string {
	return messageIDPrefix + randomAlphanumeric(idLength)
}

// ValidateSessionID checks whether the given string is a valid session ID.
func ValidateSessionID(id string) bool {
	if len(id) <= len(sessionIDPrefix) || id[:len(sessionIDPrefix)] != sessionIDPrefix {
		return false
	}
	_, err := uuid.Parse(id[len(sessionIDPrefix):])
	return err == nil
}

// ValidateMessageID checks whether the given string is a valid message ID
// (matches "msg_" + 24 alphanumeric characters).
func ValidateMessageID(id string) bool {
	return messageIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}

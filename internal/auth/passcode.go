package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasscodeMismatch is returned when a join attempt presents the wrong
// room passcode.
var ErrPasscodeMismatch = errors.New("passcode mismatch")

// HashPasscode hashes a room passcode for storage. Empty passcodes mean
// an open room and hash to nil.
func HashPasscode(passcode string) ([]byte, error) {
	if passcode == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash passcode: %w", err)
	}
	return hash, nil
}

// VerifyPasscode checks a presented passcode against the stored hash. A
// nil hash means the room is open and anything passes.
func VerifyPasscode(hash []byte, passcode string) error {
	if len(hash) == 0 {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(passcode)); err != nil {
		return ErrPasscodeMismatch
	}
	return nil
}

package utils

import "golang.org/x/crypto/bcrypt"

// HashMPIN derives the credential proof forwarded to the institution
// adapters. The switch never sees or stores a plain MPIN beyond this call.
func HashMPIN(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckMPIN compares a plain MPIN against its hash.
func CheckMPIN(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package utils

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	lowerAlnum   = "0123456789abcdefghijklmnopqrstuvwxyz"
)

func GenerateID() string {
	id, err := gonanoid.Generate(alphanumeric, 7)
	if err != nil {
		return ""
	}
	return id
}

// GenerateAccountKey returns the stable key used to address a connected account.
func GenerateAccountKey() string {
	id, err := gonanoid.Generate(alphanumeric, 16)
	if err != nil {
		return ""
	}
	return "acc_" + id
}

// GenerateSlugSuffix returns a short lowercase suffix for public booking links.
func GenerateSlugSuffix() string {
	id, err := gonanoid.Generate(lowerAlnum, 6)
	if err != nil {
		return strings.ToLower(GenerateID())
	}
	return id
}

// Package utils provides small shared helpers used across the session
// manager and its supporting packages.
package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// IsValidUUID reports whether uuidStr parses as a UUID (with or without
// hyphens).
func IsValidUUID(uuidStr string) bool {
	_, err := uuid.Parse(uuidStr)
	return err == nil
}

// GenerateNamespaceUUID generates a UUID v5 from a namespace and name,
// producing a deterministic id for the same namespace+name pair every time.
func GenerateNamespaceUUID(namespace uuid.UUID, name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// NamespaceSessions seeds the Session Manager's deterministic session-id
// digest: session.id = GenerateNamespaceUUID(NamespaceSessions, key).
var NamespaceSessions = uuid.MustParse("6ba7b815-9dad-11d1-80b4-00c04fd430c8")

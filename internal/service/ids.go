package service

import (
	"strings"

	"github.com/google/uuid"
)

func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:12]
}

func newSessionToken() string {
	return "session_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

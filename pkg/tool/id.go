package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateReference builds a human-traceable merchant reference for a payment
// attempt. UUIDv7 keeps references sortable by creation time.
func GenerateReference() string {
	compact := strings.ToUpper(strings.ReplaceAll(GenerateUUIDV7(), "-", ""))
	return "ORD-" + compact[:18]
}

package common

import (
	"github.com/google/uuid"
)

// NewQueryID generates a unique id for a nearby lookup
// Format: qry_<uuid>
func NewQueryID() string {
	return "qry_" + uuid.New().String()
}

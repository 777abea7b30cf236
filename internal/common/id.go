package common

import (
	"github.com/google/uuid"
)

// NewTaskID generates a unique indexing task id.
func NewTaskID() string {
	return uuid.New().String()
}

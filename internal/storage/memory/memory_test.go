package memory

import (
	"testing"

	"dompet/internal/storage"
	"dompet/internal/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

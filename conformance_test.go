package relq_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/relqio/relq"
	"github.com/relqio/relq/internal/relqtest"
)

func TestMemoryQueue_Conformance(t *testing.T) {
	relqtest.Run(t, func(t *testing.T) relq.Queue[uuid.UUID] {
		return relq.NewMemoryQueue[uuid.UUID]()
	})
}

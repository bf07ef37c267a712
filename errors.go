package frvm

import (
	"errors"
	"fmt"

	"github.com/vdd9/frvm/category"
	"github.com/vdd9/frvm/corpus"
	"github.com/vdd9/frvm/expr"
)

var (
	// ErrClosed is returned when an operation is attempted on a closed Library.
	ErrClosed = errors.New("library closed")

	// ErrUnknownCategory is returned when a query or assignment names an
	// emoji key that is not registered.
	ErrUnknownCategory = category.ErrUnknownCategory

	// ErrUnknownEntity is returned when an entity id does not exist in the
	// scanned library.
	ErrUnknownEntity = corpus.ErrUnknownEntity

	// ErrSyntax is returned when a query expression is structurally invalid.
	ErrSyntax = expr.ErrSyntax
)

// ErrInvalidPartition indicates a partition name outside the configured set.
type ErrInvalidPartition struct {
	Partition string
}

func (e *ErrInvalidPartition) Error() string {
	return fmt.Sprintf("invalid partition: %q", e.Partition)
}

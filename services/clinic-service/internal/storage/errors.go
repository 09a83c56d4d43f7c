package storage

import (
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// DomainError translates a store failure into the clinic error taxonomy.
// ErrNotFound becomes model.ErrNotFound; anything else is a *model.StoreError.
// Callers handle ErrConflict and ErrStatusChanged before reaching here.
func DomainError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %s", model.ErrNotFound, op)
	default:
		return model.NewStoreError(op, err)
	}
}

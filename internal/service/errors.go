package service

import (
	"errors"

	"fitness-platform/internal/domain"
)

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
func isConflict(err error) bool { return errors.Is(err, domain.ErrConflict) }

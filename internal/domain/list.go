package domain

import (
	"fmt"
	"strconv"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ListParams carries pagination and free-text search shared by every list operation
type ListParams struct {
	Skip   int
	Limit  int
	Search string
}

// ParseListParams reads skip, limit and search from query values. Empty
// values fall back to the defaults.
func ParseListParams(skip, limit, search string) (ListParams, error) {
	params := ListParams{Limit: DefaultListLimit, Search: search}

	if skip != "" {
		v, err := strconv.Atoi(skip)
		if err != nil {
			return params, NewValidationError("skip must be an integer")
		}
		params.Skip = v
	}

	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			return params, NewValidationError("limit must be an integer")
		}
		params.Limit = v
	}

	return params, params.Validate()
}

func (p ListParams) Validate() error {
	if p.Skip < 0 {
		return NewValidationError("skip must be >= 0")
	}
	if p.Limit < 1 || p.Limit > MaxListLimit {
		return NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	return nil
}

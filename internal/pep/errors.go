package pep

import "fmt"

// StatusKeyError reports an index status code missing from the taxonomy.
type StatusKeyError struct {
	ItemID string
	Code   string
}

func (e *StatusKeyError) Error() string {
	return fmt.Sprintf("PEP %s: unknown status code %q", e.ItemID, e.Code)
}

// StatusNameError reports a detail-page status that no code accepts.
type StatusNameError struct {
	ItemID string
	Name   string
}

func (e *StatusNameError) Error() string {
	return fmt.Sprintf("PEP %s: invalid status name %q", e.ItemID, e.Name)
}

/*
Package errors provides semantic error types for the RecordStore library.

Every backend surfaces the same four failure kinds, each with a sentinel
that can be checked with the standard errors.Is() function or the
provided helper functions:

	var (
	    ErrValidation      = errors.New("validation failed")
	    ErrConflict        = errors.New("conflict")
	    ErrNotFound        = errors.New("record not found")
	    ErrInvalidArgument = errors.New("invalid argument")
	)

Usage:

	project, err := store.Update(ctx, p)
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("project %d does not exist", p.ID)
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewValidationError("name", "is required")
	err := errors.NewConflictError("Project", "code", "P001")
	err := errors.NewInvalidArgumentError("id", "not an integer")

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors

package errorx

import "fmt"

// Wrap annotates err with the operation name. It returns nil for a nil err.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

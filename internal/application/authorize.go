package application

import "fmt"

// authorize returns ErrUnauthorized unless the principal holds min.
func authorize(principal Principal, min Role) error {
	if !principal.HasRole(min) {
		return fmt.Errorf("%w: %s requires role %s", ErrUnauthorized, principal.StaffName, min)
	}
	return nil
}

package types

// IsValidTeacherID reports whether id is a well-formed teacher identifier:
// 1-50 characters, alphanumeric plus underscore and hyphen.
func IsValidTeacherID(id string) bool {
	if len(id) == 0 || len(id) > 50 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

func validateTeacherID(id string) error {
	if !IsValidTeacherID(id) {
		return ErrInvalidTeacherID
	}
	return nil
}

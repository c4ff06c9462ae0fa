package utils

func StringToPtr(v string) *string {
	return &v
}

// PtrToString returns "" for nil.
func PtrToString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

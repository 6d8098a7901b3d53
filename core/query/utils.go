package query

// IntPtr returns a pointer to i, for the optional Page and Limit fields.
func IntPtr(i int) *int {
	return &i
}

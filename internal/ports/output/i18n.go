package output

// T is the translation port behind every member-facing string: notices,
// embed labels, command replies.
type T interface {
	// T renders key for locale; data fills template placeholders and may be nil.
	T(locale, key string, data map[string]any) string
}

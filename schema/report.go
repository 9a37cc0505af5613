package schema

// Report collects the violations found during a single validation run,
// in document order. IDREF resolution happens once the whole document
// has been seen, so referential errors always come after everything
// else.
type Report struct {
	violations []error
}

func (r *Report) add(err error) {
	r.violations = append(r.violations, err)
}

// OK reports whether the document passed validation.
func (r *Report) OK() bool {
	return len(r.violations) == 0
}

func (r *Report) Len() int {
	return len(r.violations)
}

// Violations returns the accumulated violations in the order they were
// found. Entries are either *ValidationError or
// *ReferentialIntegrityError.
func (r *Report) Violations() []error {
	return r.violations
}

package logging

// Mask replaces redacted values.
const Mask = "***"

// Redactor masks the values of sensitive keys in a structured payload.
// Only top-level keys are inspected; nested values are left alone.
type Redactor struct {
	fields map[string]struct{}
}

// NewRedactor creates a redactor for exact key matches.
func NewRedactor(fields []string) *Redactor {
	r := &Redactor{fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		r.fields[f] = struct{}{}
	}
	return r
}

// Sensitive reports whether key is masked.
func (r *Redactor) Sensitive(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Redact returns a shallow copy of payload with sensitive values masked.
// Non-map payloads are returned unchanged.
func (r *Redactor) Redact(payload any) any {
	m, ok := payload.(map[string]any)
	if !ok || len(r.fields) == 0 {
		return payload
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if r.Sensitive(k) {
			out[k] = Mask
			continue
		}
		out[k] = v
	}
	return out
}

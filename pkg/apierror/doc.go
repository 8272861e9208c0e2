// Package apierror is the single error-normalization layer of the HTTP
// pipeline.
//
// Every failure that reaches the client passes through Handler.Write and
// leaves as an Envelope:
//
//	{"code": "not_found", "message": "Not found.", "request_id": "..."}
//
// Handlers return errors instead of writing them:
//
//	mux.Handle("/things", h.Wrap(func(w http.ResponseWriter, r *http.Request) error {
//	    thing, err := load(r.Context())
//	    if err != nil {
//	        return err // sql.ErrNoRows becomes 404 not_found
//	    }
//	    ...
//	}))
//
// Known platform errors (missing rows, missing files, permission errors,
// cache misses) map to their client kind. Anything else is logged with a
// stack trace and replaced by a generic 500 so internal details never leak.
package apierror

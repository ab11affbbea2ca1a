// Package errs defines the error kinds shared by the record store, the
// transport and the synchronization controller.
//
// # Kinds
//
//   - InvalidFieldType, InvalidValue, InvalidEncoding: a local field value was
//     rejected by a validator (the "validation" class, see IsValidation).
//   - PreconditionFailed: the operation is not allowed in the record's state.
//   - Unauthenticated: credentials are required but absent or rejected.
//   - RemoteError: the remote API answered with a non-2xx status.
//   - NotFound: the remote API reports the resource as missing.
//
// # Usage
//
//	if err := b.Set("status", "FIXED"); errors.Is(err, errs.InvalidValue) {
//	    // not a status value
//	}
//
//	var e *errs.Error
//	if errors.As(err, &e) && e.Kind == errs.RemoteError {
//	    fmt.Println(e.Code, e.Message)
//	}
package errs

package routehandlers

import (
	"errors"
	"net/http"

	"github.com/coreybb/couponbook/datastore"
	"github.com/coreybb/couponbook/lifecycle"
	"github.com/coreybb/couponbook/webutil"
)

// Handle wraps an AppHandler so domain errors reach webutil.MakeHandler as
// HTTP errors: validation -> 400, not found -> 404, authentication -> 401.
// Anything else, storage failures included, stays a 500.
func Handle(h webutil.AppHandler) http.HandlerFunc {
	return webutil.MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		return translateError(h(w, r))
	})
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *webutil.HTTPError
	var validationErr *lifecycle.ValidationError
	switch {
	case errors.As(err, &httpErr):
		return err
	case errors.As(err, &validationErr):
		return webutil.ErrBadRequestWrap(validationErr.Error(), err)
	case errors.Is(err, datastore.ErrNotFound):
		return webutil.ErrNotFoundWrap("", err)
	case errors.Is(err, datastore.ErrAuthentication):
		return webutil.ErrUnauthorizedWrap("", err)
	default:
		return err
	}
}

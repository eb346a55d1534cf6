package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/railkit/trackproj/domain"
)

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string   `json:"status"`           // user-level status message
	AppCode    int64    `json:"code,omitempty"`   // application-specific error code
	ErrorText  string   `json:"error,omitempty"`  // application-level error message, for debugging
	Fields     []string `json:"fields,omitempty"` // validation messages per field
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, fields []string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		Fields:         fields,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

// ErrDomain maps a projection taxonomy error onto an http status.
func ErrDomain(err error) render.Renderer {
	switch {
	case errors.Is(err, domain.ErrInvalidCrs),
		errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrEmptyNetwork):
		return ErrInvalidRequest(err)
	case errors.Is(err, domain.ErrUnprojectable):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnprocessableEntity,
			StatusText:     "Unprojectable fix.",
			ErrorText:      err.Error(),
		}
	default:
		return ErrInternalServerErrorRend(err)
	}
}

func translateError(err error, trans ut.Translator) []string {
	var out []string
	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			out = append(out, e.Translate(trans))
		}
	}
	return out
}

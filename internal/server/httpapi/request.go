package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; every body here is a small JSON object.
const maxBodyBytes = 64 << 10

type RegisterRequest struct {
	SteamID   string  `json:"steam_id" validate:"required,max=64"`
	Name      string  `json:"name" validate:"required,max=128"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	PlayerTag *string `json:"player_tag" validate:"omitempty,max=64"`
	Rank      *string `json:"rank" validate:"omitempty,max=64"`
	Password  string  `json:"password" validate:"required,max=1024"`
}

type ConfirmRegistrationRequest struct {
	Token string `json:"token" validate:"required,hexadecimal"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LogoutRequest struct {
	Token string `json:"token" validate:"required"`
}

type CreateEventRequest struct {
	Title      string    `json:"title" validate:"required,max=256"`
	DateTime   time.Time `json:"date_time" validate:"required"`
	Tournament bool      `json:"tournament"`
}

type PlayerRequest struct {
	PlayerID int32 `json:"player_id" validate:"required,gt=0"`
}

// decoder reads and validates JSON request bodies.
type decoder struct {
	validate *validator.Validate
}

func newDecoder() *decoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &decoder{validate: v}
}

// decode reads one JSON object from r into dst and validates it. Unknown
// fields are rejected.
func (d *decoder) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewInvalidRequestError("request body is empty")
		}
		return NewInvalidRequestError("invalid request body")
	}
	if err := d.validate.Struct(dst); err != nil {
		return NewInvalidRequestError(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

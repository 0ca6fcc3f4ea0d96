package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/pkg/model"
)

var msgConditions = conditionsMessage()

// validate is the singleton validator instance used across all handlers.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		return storage.Condition(fl.Field().String()).IsValid()
	}); err != nil {
		panic(err)
	}
}

func conditionsMessage() string {
	quoted := make([]string, len(storage.AllConditions))
	for i, c := range storage.AllConditions {
		quoted[i] = fmt.Sprintf("'%s'", c)
	}
	return "allowed values are " + strings.Join(quoted, ", ")
}

type bookRequest struct {
	Title      string   `json:"title" validate:"required" msg:"must be a non empty string"`
	ISBN       string   `json:"isbn" validate:"required" msg:"must be a non empty string"`
	Conditions string   `json:"conditions" validate:"condition"`
	Authors    []string `json:"authors" validate:"required,dive,required" msg:"empty values are not allowed"`
	Categories []string `json:"categories" validate:"required,dive,required" msg:"empty values are not allowed"`
}

func (b *bookRequest) toBook() *storage.Book {
	return &storage.Book{
		Title:      b.Title,
		ISBN:       b.ISBN,
		Conditions: storage.Condition(b.Conditions),
		Authors:    b.Authors,
		Categories: b.Categories,
	}
}

type orderRequest struct {
	Purchaser string   `json:"purchaser" validate:"required" msg:"must be a non empty string"`
	BookIDs   []string `json:"bookIds" validate:"required,dive,required" msg:"empty values are not allowed"`
}

type deliveryRequest struct {
	Supplier string   `json:"supplier" validate:"required" msg:"must be a non empty string"`
	BookIDs  []string `json:"bookIds" validate:"required,dive,required" msg:"empty values are not allowed"`
}

type webHookRequest struct {
	URL string `json:"url" validate:"required,url" msg:"must be a valid URL"`
}

// errInvalidJSON marks a body that is not JSON at all.
var errInvalidJSON = errors.New("invalid JSON format")

// decodeAndValidate decodes a JSON request body and validates it. A body of
// the wrong shape is not a decode failure: mistyped fields stay zero and are
// reported by validation, so every bad field gets a field-level message.
func decodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF), errors.As(err, &typeErr):
		case errors.As(err, &maxErr):
			return nil, maxErr
		default:
			return nil, errInvalidJSON
		}
	}
	if err := validate.Struct(&req); err != nil {
		return nil, formatValidationErrors(&req, err)
	}
	return &req, nil
}

// formatValidationErrors converts validator errors into the field-level
// validation list, one entry per field, in declaration order.
func formatValidationErrors(req any, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return model.GenericError("request could not be validated", err)
	}

	messages := fieldMessages(req)
	seen := make(map[string]bool)
	out := &model.ValidationErrors{}
	for _, fe := range ve {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if seen[field] {
			continue
		}
		seen[field] = true
		out.Add(field, messages[field])
	}
	return out
}

// fieldMessages maps json field names to the message declared in their msg
// tag. The conditions message is built from the allowed set.
func fieldMessages(req any) map[string]string {
	t := reflect.TypeOf(req).Elem()
	messages := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		msg := f.Tag.Get("msg")
		if f.Tag.Get("validate") == "condition" {
			msg = msgConditions
		}
		if msg == "" {
			msg = "is invalid"
		}
		messages[name] = msg
	}
	return messages
}

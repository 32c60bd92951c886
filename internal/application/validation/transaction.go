// Package validation decodes and checks inbound transactions for every
// transport, so REST, gRPC and Kafka reject exactly the same inputs.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fraudscope/fraudscope/internal/application/dto"
	"github.com/fraudscope/fraudscope/internal/domain/valueobject"
)

// MaxBodyBytes is the largest encoded transaction a transport should accept.
const MaxBodyBytes = 1 << 20

// ErrMalformed is returned when the payload is not a single JSON object of the
// expected shape.
var ErrMalformed = errors.New("malformed transaction payload")

// TransactionInput is the wire shape of a transaction. Amount is a pointer so
// an absent amount can be told apart from zero.
type TransactionInput struct {
	Amount   *decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Location string           `json:"location" validate:"required,location"`
	Time     string           `json:"time" validate:"required,daypart"`
	Device   string           `json:"device" validate:"required,device"`
}

// Request converts a validated input into the use case DTO.
func (in TransactionInput) Request(source string) dto.ScoreTransactionRequest {
	var amount decimal.Decimal
	if in.Amount != nil {
		amount = *in.Amount
	}
	return dto.ScoreTransactionRequest{
		Amount:   amount,
		Location: in.Location,
		Time:     in.Time,
		Device:   in.Device,
		Source:   source,
	}
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned when a decoded transaction breaks a field rule.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks TransactionInput values. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the categorical rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("location", oneOf(valueobject.IsLocation))
	_ = v.RegisterValidation("daypart", oneOf(valueobject.IsTimeOfDay))
	_ = v.RegisterValidation("device", oneOf(valueobject.IsDevice))

	return &Validator{validate: v}
}

func oneOf(member func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return member(fl.Field().String())
	}
}

// Validate returns ValidationErrors when any field rule fails.
func (v *Validator) Validate(in TransactionInput) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating transaction: %w", err)
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "location":
		return "must be one of: " + strings.Join(valueobject.Locations, ", ")
	case "daypart":
		return "must be one of: " + strings.Join(valueobject.TimesOfDay, ", ")
	case "device":
		return "must be one of: " + strings.Join(valueobject.Devices, ", ")
	default:
		return "is invalid"
	}
}

// Decode reads exactly one JSON object. Unknown fields and trailing data are
// rejected with ErrMalformed. Callers bound the size of r.
func Decode(r io.Reader) (TransactionInput, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var in TransactionInput
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return TransactionInput{}, fmt.Errorf("%w: empty body", ErrMalformed)
		}
		return TransactionInput{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return TransactionInput{}, fmt.Errorf("%w: unexpected data after object", ErrMalformed)
	}

	return in, nil
}

// DecodeAndValidate is Decode followed by Validate.
func (v *Validator) DecodeAndValidate(r io.Reader) (TransactionInput, error) {
	in, err := Decode(r)
	if err != nil {
		return TransactionInput{}, err
	}
	if err := v.Validate(in); err != nil {
		return TransactionInput{}, err
	}
	return in, nil
}

package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"rental/shared/constant"
	"rental/shared/failure"
	"rental/shared/timezone"
	"reflect"
	"slices"
	"strconv"
	"strings"

	val "github.com/go-playground/validator/v10"
)

const bytesPerMB = 1024 * 1024

var validate *val.Validate

func fileHeader(field val.FieldLevel) (*multipart.FileHeader, bool) {
	switch file := field.Field().Interface().(type) {
	case multipart.FileHeader:
		return &file, true
	case *multipart.FileHeader:
		return file, file != nil
	default:
		return nil, false
	}
}

func validateMimetype(field val.FieldLevel) bool {
	file, ok := fileHeader(field)
	if !ok {
		return false
	}

	allowedTypes := strings.Fields(field.Param())

	return slices.Contains(allowedTypes, file.Header.Get(constant.RequestHeaderContentType))
}

func validateFileSize(field val.FieldLevel) bool {
	file, ok := fileHeader(field)
	if !ok {
		return false
	}

	maxSizeMB, err := strconv.ParseFloat(field.Param(), 64)
	if err != nil {
		return false
	}

	return float64(file.Size) <= maxSizeMB*bytesPerMB
}

// validateCompactDate accepts calendar dates written as YYYYMMDD.
func validateCompactDate(field val.FieldLevel) bool {
	value := field.Field().String()
	if len(value) != len(constant.DateFormatCompact) {
		return false
	}

	_, err := timezone.Parse(constant.DateFormatCompact, value)

	return err == nil
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]val.Func{
		"mimetypes":   validateMimetype,
		"maxfilesize": validateFileSize,
		"yyyymmdd":    validateCompactDate,
	}

	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

// Validate decodes the JSON body from r into data and validates the result.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

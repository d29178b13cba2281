package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Tomlord1122/todos-api/internal/domain"
)

const maxBodyBytes = 1 << 20

var (
	// isCompleted is accepted for older clients that send the full shape but
	// is ignored: new todos always start open.
	createTodoSchema = jsonschema.MustCompileString("create-todo.schema.json", `{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"isCompleted": {"type": "boolean"}
		},
		"required": ["title"],
		"additionalProperties": false
	}`)

	updateTodoSchema = jsonschema.MustCompileString("update-todo.schema.json", `{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"isCompleted": {"type": "boolean"}
		},
		"additionalProperties": false
	}`)
)

// decodeJSONBody reads a single JSON document from the request, checks it
// against schema and unmarshals it into dst. Every failure is a 400
// validation error with a message safe to show to the client.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return domain.NewValidationError(fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit))
		}
		return domain.NewInternalError(fmt.Errorf("read request body: %w", err))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return domain.NewValidationError("Request body must not be empty")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return describeJSONError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.NewValidationError("Request body must only contain a single JSON object")
	}

	if err := schema.Validate(doc); err != nil {
		return domain.NewValidationError("Invalid request body: " + schemaErrorMessage(err))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return describeJSONError(err)
	}
	return nil
}

func describeJSONError(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxError):
		return domain.NewValidationError(fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF):
		return domain.NewValidationError("Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		return domain.NewValidationError(fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset))
	case errors.Is(err, io.EOF):
		return domain.NewValidationError("Request body must not be empty")
	default:
		return domain.NewValidationError("Invalid request body")
	}
}

// schemaErrorMessage reports the first leaf cause of a schema failure,
// prefixed with the offending field when there is one.
func schemaErrorMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	field = strings.ReplaceAll(field, "/", ".")
	if field == "" {
		return ve.Message
	}
	return field + ": " + ve.Message
}

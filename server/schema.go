package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const chatRequestSchema = `{
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {"type": "string"},
    "history": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role"],
        "properties": {
          "id": {},
          "role": {"type": "string"},
          "content": {"type": ["string", "array", "null"]},
          "timestamp": {}
        }
      }
    },
    "imageUrl": {"type": "string"},
    "imageBase64": {"type": "string"}
  }
}`

const sendMessageSchema = `{
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {"type": "string"},
    "imageUrl": {"type": "string"},
    "imageBase64": {"type": "string"}
  }
}`

const createSessionSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "maxLength": 200}
  }
}`

const renameSessionSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 200}
  }
}`

// errInvalidBody marks request bodies rejected before decoding.
var errInvalidBody = errors.New("invalid request body")

// validator checks a request body against one compiled JSON Schema.
type validator struct {
	schema *gojsonschema.Schema
}

func mustValidator(schema string) validator {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return validator{schema: s}
}

var (
	chatRequestValidator   = mustValidator(chatRequestSchema)
	sendMessageValidator   = mustValidator(sendMessageSchema)
	createSessionValidator = mustValidator(createSessionSchema)
	renameSessionValidator = mustValidator(renameSessionSchema)
)

// Validate returns an errInvalidBody-wrapped error listing every violation.
func (v validator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if !result.Valid() {
		var violations []string
		for _, e := range result.Errors() {
			violations = append(violations, e.String())
		}
		return fmt.Errorf("%w: %s", errInvalidBody, strings.Join(violations, "; "))
	}
	return nil
}

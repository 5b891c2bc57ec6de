package order

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

const payloadSchemaURL = "https://undercontrol.dev/schemas/order-payload.schema.json"

//go:embed payload.schema.json
var payloadSchemaJSON []byte

var (
	payloadSchemaOnce sync.Once
	payloadSchema     *jsonschema.Schema
	payloadSchemaErr  error
)

func compiledPayloadSchema() (*jsonschema.Schema, error) {
	payloadSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(payloadSchemaURL, bytes.NewReader(payloadSchemaJSON)); err != nil {
			payloadSchemaErr = fmt.Errorf("failed to load order payload schema: %w", err)
			return
		}
		payloadSchema, payloadSchemaErr = c.Compile(payloadSchemaURL)
	})
	return payloadSchema, payloadSchemaErr
}

// ValidatePayload checks raw against the order payload schema and decodes
// it. Every failure is a malformed payload error.
func ValidatePayload(raw []byte) (Payload, error) {
	const op = "order.ValidatePayload"

	schema, err := compiledPayloadSchema()
	if err != nil {
		return Payload{}, apperror.Wrap(apperror.KindUnknown, op, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return Payload{}, apperror.Wrapf(apperror.KindMalformedPayload, op, err, "invalid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return Payload{}, apperror.Wrapf(apperror.KindMalformedPayload, op, err, "payload does not match schema")
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, apperror.Wrapf(apperror.KindMalformedPayload, op, err, "invalid payload")
	}
	return payload, nil
}

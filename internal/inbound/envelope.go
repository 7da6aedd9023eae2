package inbound

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

const envelopeSchemaURL = "https://todosync.local/schemas/envelope.json"

// EnvelopeSchema describes the JSON envelope accepted by ingest and the spool
// watcher.
const EnvelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["channel", "from", "text"],
  "properties": {
    "channel": {"enum": ["chat", "email", "sheet"]},
    "from": {"type": "string", "minLength": 1},
    "id": {"type": "string"},
    "subject": {"type": "string"},
    "text": {"type": "string"},
    "received_at": {"type": "string", "format": "date-time"}
  },
  "if": {"properties": {"channel": {"const": "email"}}},
  "then": {"required": ["id"], "properties": {"id": {"minLength": 1}}},
  "additionalProperties": false
}`

// Envelope is a channel-tagged inbound message, the shape a webhook listener
// writes into the spool.
type Envelope struct {
	Channel    string     `json:"channel"`
	From       string     `json:"from"`
	ID         string     `json:"id,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Text       string     `json:"text"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func envelopeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(EnvelopeSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse envelope schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		c.AssertFormat()
		if err := c.AddResource(envelopeSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add envelope schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(envelopeSchemaURL)
	})
	return schema, schemaErr
}

// DecodeEnvelope validates data against EnvelopeSchema and converts it into
// an Inbound. ReceivedAt defaults to now.
func DecodeEnvelope(data []byte, now time.Time) (messaging.Inbound, error) {
	sch, err := envelopeSchema()
	if err != nil {
		return messaging.Inbound{}, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return messaging.Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return messaging.Inbound{}, fmt.Errorf("invalid envelope: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return messaging.Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}

	ch, err := todo.ParseChannel(env.Channel)
	if err != nil {
		return messaging.Inbound{}, err
	}

	received := now
	if env.ReceivedAt != nil {
		received = *env.ReceivedAt
	}

	return messaging.Inbound{
		ID:         strings.TrimSpace(env.ID),
		Channel:    ch,
		Sender:     strings.TrimSpace(env.From),
		Subject:    strings.TrimSpace(env.Subject),
		Text:       env.Text,
		ReceivedAt: received,
	}, nil
}

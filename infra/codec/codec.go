// Package codec serializes the events the engine hands to the outside world.
package codec

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Version is written into every event.
const Version = 1

// Event is one outbound message. Body values must be JSON-compatible: strings,
// numbers, bools, []any and map[string]any.
type Event struct {
	V    int            `json:"v"`
	Type string         `json:"type"`
	Seq  uint64         `json:"seq"`
	Run  string         `json:"run"`
	Body map[string]any `json:"body"`
}

type Serializer interface {
	Name() string
	Encode(Event) ([]byte, error)
	Decode([]byte) (Event, error)
}

var ErrUnknownFormat = errors.New("codec: unknown format")

// ByName returns the serializer for "json" or "proto".
func ByName(name string) (Serializer, error) {
	switch name {
	case "json", "":
		return JSONSerializer{}, nil
	case "proto":
		return ProtoSerializer{}, nil
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "%q", name)
}

// Money renders an amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// ---------- JSON ----------

type JSONSerializer struct{}

func (JSONSerializer) Name() string { return "json" }

func (JSONSerializer) Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func (JSONSerializer) Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, errors.Wrap(err, "codec: decode json event")
	}
	return e, nil
}

// ---------- Protobuf ----------

// ProtoSerializer encodes events as a google.protobuf.Struct.
type ProtoSerializer struct{}

func (ProtoSerializer) Name() string { return "proto" }

func (ProtoSerializer) Encode(e Event) ([]byte, error) {
	body := e.Body
	if body == nil {
		body = map[string]any{}
	}
	s, err := structpb.NewStruct(map[string]any{
		"v":    e.V,
		"type": e.Type,
		"seq":  float64(e.Seq),
		"run":  e.Run,
		"body": body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "codec: build struct")
	}
	return proto.Marshal(s)
}

func (ProtoSerializer) Decode(b []byte) (Event, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return Event{}, errors.Wrap(err, "codec: decode proto event")
	}
	f := s.GetFields()
	e := Event{
		V:    int(f["v"].GetNumberValue()),
		Type: f["type"].GetStringValue(),
		Seq:  uint64(f["seq"].GetNumberValue()),
		Run:  f["run"].GetStringValue(),
	}
	if body := f["body"].GetStructValue(); body != nil {
		e.Body = body.AsMap()
	}
	return e, nil
}

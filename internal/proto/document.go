package proto

import (
	"bytes"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Document is a record body or patch. On the wire it is a
// google.protobuf.Struct, so only JSON-compatible values can be sent.
type Document map[string]any

func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	s, err := d.Struct()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	*d = s.AsMap()
	return nil
}

// Struct converts d to its protobuf form.
func (d Document) Struct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return s, nil
}

package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// init registers the JSON codec so clients can call the service with the
// "json" content subtype and no generated stubs.
func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

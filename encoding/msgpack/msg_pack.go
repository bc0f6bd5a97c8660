package msgpack

import (
	"bytes"

	"github.com/go-slark/svcindex/encoding"
	"github.com/vmihailenco/msgpack/v5"
)

const Name = "msgpack"

func init() {
	encoding.RegisterCodec(&codec{})
}

// codec reads json tags so wire field names match the json codec.
type codec struct{}

func (*codec) Marshal(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*codec) Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (*codec) Name() string {
	return Name
}

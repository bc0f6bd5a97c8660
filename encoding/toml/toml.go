package toml

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/go-slark/svcindex/encoding"
)

const Name = "toml"

type codec struct{}

func init() {
	encoding.RegisterCodec(codec{})
}

func (c codec) Name() string {
	return Name
}

func (c codec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c codec) Unmarshal(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

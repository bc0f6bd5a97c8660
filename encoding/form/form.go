package form

import (
	"net/url"

	"github.com/go-playground/form/v4"
	"github.com/go-slark/svcindex/encoding"
)

const Name = "x-www-form-urlencoded"

func init() {
	decoder := form.NewDecoder()
	decoder.SetTagName("json")
	encoder := form.NewEncoder()
	encoder.SetTagName("json")
	encoding.RegisterCodec(&codec{
		encoder: encoder,
		decoder: decoder,
	})
}

type codec struct {
	encoder *form.Encoder
	decoder *form.Decoder
}

func (c *codec) Marshal(v interface{}) ([]byte, error) {
	if values, ok := v.(url.Values); ok {
		return []byte(values.Encode()), nil
	}
	values, err := c.encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return []byte(values.Encode()), nil
}

func (c *codec) Unmarshal(data []byte, v interface{}) error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	return c.decoder.Decode(v, values)
}

func (*codec) Name() string {
	return Name
}

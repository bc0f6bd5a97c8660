package encoding

import (
	"strings"
	"sync"
)

// abstract serialization / deserialization

type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	Name() string
}

var (
	mu     sync.RWMutex
	codecs = make(map[string]Codec)
)

func RegisterCodec(codec Codec) {
	if codec == nil || len(codec.Name()) == 0 {
		panic("cannot register nil or empty name Codec")
	}
	mu.Lock()
	codecs[strings.ToLower(codec.Name())] = codec
	mu.Unlock()
}

// GetCodec returns nil when no codec is registered under codecType.
func GetCodec(codecType string) Codec {
	mu.RLock()
	defer mu.RUnlock()
	return codecs[strings.ToLower(codecType)]
}

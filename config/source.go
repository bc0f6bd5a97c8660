package config

// Source is one layer of configuration. Later sources override earlier ones
// key by key.
type Source interface {
	// Load returns the whole document, encoded in Format.
	Load() ([]byte, error)
	// Watch signals that Load would now return something new. The channel
	// is closed once the source is closed.
	Watch() <-chan struct{}
	Close() error
	// Format names the encoding codec that decodes Load's output.
	Format() string
}

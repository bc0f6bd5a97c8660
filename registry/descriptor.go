package registry

import (
	"fmt"
	"net"
	"strconv"
)

// TypeTag names a type in some external type system. It is carried, never
// interpreted.
type TypeTag string

type Argument struct {
	Name string  `json:"name" yaml:"name" toml:"name"`
	Type TypeTag `json:"type" yaml:"type" toml:"type"`
}

type Method struct {
	Name    string     `json:"name" yaml:"name" toml:"name"`
	Args    []Argument `json:"args" yaml:"args" toml:"args"`
	Returns TypeTag    `json:"returning" yaml:"returning" toml:"returning"`
}

type Endpoint struct {
	Host string `json:"host" yaml:"host" toml:"host"`
	Port uint16 `json:"port" yaml:"port" toml:"port"`
}

func ParseEndpoint(addr string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Endpoint{}, err
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid port %q: %w", port, err)
	}
	return Endpoint{Host: host, Port: uint16(p)}, nil
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.FormatUint(uint64(e.Port), 10))
}

// Descriptor is everything the index knows about one service instance.
type Descriptor struct {
	Identity Identity `json:"identity" yaml:"identity" toml:"identity"`
	Address  Endpoint `json:"address" yaml:"address" toml:"address"`
	Methods  []Method `json:"methods" yaml:"methods" toml:"methods"`
}

// Clone returns a deep copy. nil slices stay nil.
func (d Descriptor) Clone() Descriptor {
	out := d
	if d.Methods == nil {
		return out
	}
	out.Methods = make([]Method, len(d.Methods))
	for i, m := range d.Methods {
		out.Methods[i] = m
		if m.Args != nil {
			out.Methods[i].Args = make([]Argument, len(m.Args))
			copy(out.Methods[i].Args, m.Args)
		}
	}
	return out
}

func (d Descriptor) Validate() error {
	if err := d.Identity.Validate(); err != nil {
		return err
	}
	if d.Address.Host == "" {
		return ErrInvalidDescriptor.WithMessage(fmt.Sprintf("%s: endpoint host is empty", d.Identity))
	}
	for i, m := range d.Methods {
		if m.Name == "" {
			return ErrInvalidDescriptor.WithMessage(fmt.Sprintf("%s: method #%d has no name", d.Identity, i))
		}
		for j, a := range m.Args {
			if a.Name == "" {
				return ErrInvalidDescriptor.WithMessage(fmt.Sprintf("%s: argument #%d of %s has no name", d.Identity, j, m.Name))
			}
		}
	}
	return nil
}

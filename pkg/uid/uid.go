// Package uid builds request id generators.
package uid

import (
	"fmt"
	"net"
	"os"

	"github.com/bwmarrin/snowflake"
	utils "github.com/go-slark/svcindex/pkg"
	"github.com/rs/xid"
)

const (
	UUID      = "uuid"
	XID       = "xid"
	Snowflake = "snowflake"
)

// Builder returns the id generator named by kind. An empty kind is UUID.
func Builder(kind string) (func() string, error) {
	switch kind {
	case "", UUID:
		return utils.BuildRequestID, nil
	case XID:
		return func() string { return xid.New().String() }, nil
	case Snowflake:
		node, err := NewNode()
		if err != nil {
			return nil, err
		}
		return func() string { return node.Generate().String() }, nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}

// NewNode creates a snowflake node. Without an explicit id (0 to 1023) the
// node id is derived from the first non loopback IPv4 address and the host
// name.
func NewNode(nodeID ...int64) (*snowflake.Node, error) {
	if len(nodeID) > 0 {
		return snowflake.NewNode(nodeID[0])
	}
	return snowflake.NewNode(centerID() | workID())
}

// center id, 5 bits
func centerID() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	var ip string
	for _, addr := range addrs {
		in, ok := addr.(*net.IPNet)
		if !ok || in.IP.IsLoopback() || in.IP.To4() == nil {
			continue
		}
		ip = in.IP.String()
		break
	}
	return int64(checksum(ip)%32) << 5
}

// work id, 5 bits
func workID() int64 {
	hn, err := os.Hostname()
	if err != nil {
		return 0
	}
	return int64(checksum(hn) % 32)
}

func checksum(s string) uint8 {
	var sum uint8
	for _, b := range []byte(s) {
		sum += b
	}
	return sum
}

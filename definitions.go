package tcpstack

// IPProto represents the IP protocol number carried in the IPv4 protocol
// field / IPv6 next-header field. Used by StackNode implementations (see
// tcp.Conn.Protocol, tcp.Listener.Protocol) to identify themselves to a
// demultiplexing IP layer.
type IPProto uint8

// IP protocol numbers relevant to this module; the full IANA registry is out
// of scope since only TCP is implemented here.
const (
	IPProtoICMP IPProto = 1  // Internet Control Message [RFC792]
	IPProtoTCP  IPProto = 6  // Transmission Control [RFC793]
	IPProtoUDP  IPProto = 17 // User Datagram [RFC768]
)

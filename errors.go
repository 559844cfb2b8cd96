package tcpstack

type errGeneric uint8

// Generic errors shared across the TCP and cipher packages.
const (
	_                     errGeneric = iota // non-initialized err
	ErrBug                                  // tcpstack-bug(use build tag "debugheaplog")
	ErrPacketDrop                           // packet dropped
	ErrBadCRC                               // incorrect checksum
	ErrZeroSource                           // zero source(port/addr)
	ErrZeroDestination                      // zero destination(port/addr)
	ErrShortBuffer                          // buffer too short
	ErrInvalidLengthField                   // invalid length field
	ErrInvalidField                         // invalid field value
	ErrMismatch                             // mismatched value
	ErrInvalidConfig                        // invalid configuration
)

func (err errGeneric) Error() string {
	return err.String()
}

func (err errGeneric) String() string {
	switch err {
	case ErrBug:
		return "tcpstack: internal bug"
	case ErrPacketDrop:
		return "tcpstack: packet dropped"
	case ErrBadCRC:
		return "tcpstack: incorrect checksum"
	case ErrZeroSource:
		return "tcpstack: zero source"
	case ErrZeroDestination:
		return "tcpstack: zero destination"
	case ErrShortBuffer:
		return "tcpstack: buffer too short"
	case ErrInvalidLengthField:
		return "tcpstack: invalid length field"
	case ErrInvalidField:
		return "tcpstack: invalid field value"
	case ErrMismatch:
		return "tcpstack: mismatched value"
	case ErrInvalidConfig:
		return "tcpstack: invalid configuration"
	default:
		return "tcpstack: unknown error"
	}
}

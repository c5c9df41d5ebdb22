package capture

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"
)

// Header lengths in bytes. TCP is the only variable-length header the walker
// decodes; its length is read from the data-offset field.
const (
	ethHeaderLen     = 14
	vlanEthHeaderLen = 18
	ipv4HeaderLen    = 20
	ipv6HeaderLen    = 40
	udpHeaderLen     = 8
	icmpHeaderLen    = 8
	icmpv6HeaderLen  = 8
	ipv6FragLen      = 8
	// ESP payload is encrypted beyond SPI + sequence number.
	espHeaderLen = 8
)

// Field offsets within their headers.
const (
	ethTypeOffset     = 12
	vlanEthTypeOffset = 16
	ipv4ProtoOffset   = 9
	ipv6NextOffset    = 6
	tcpDataOffOffset  = 12
)

// Frame is one raw captured frame. CaptureLength bounds every offset the
// extractor computes; OriginalLength is metadata only and never used for
// offset arithmetic.
type Frame struct {
	Data           []byte
	CaptureLength  int
	OriginalLength int
}

// ExtractPayload walks the protocol stack of a captured frame and returns the
// application-layer payload as a sub-slice of the frame data. It never fails:
// an unsupported or malformed chain, or any offset past the captured bytes,
// yields an empty slice anchored at the end of the capture.
func ExtractPayload(f Frame) []byte {
	capLen := f.CaptureLength
	if capLen > len(f.Data) {
		capLen = len(f.Data)
	}
	data := f.Data[:capLen]
	empty := data[capLen:]

	etherType, offset, ok := readEtherType(data)
	if !ok {
		return empty
	}

	var proto layers.IPProtocol
	switch etherType {
	case layers.EthernetTypeIPv4:
		p, ok := readByte(data, offset+ipv4ProtoOffset)
		if !ok {
			return empty
		}
		proto = layers.IPProtocol(p)
		offset += ipv4HeaderLen
	case layers.EthernetTypeIPv6:
		p, ok := readByte(data, offset+ipv6NextOffset)
		if !ok {
			return empty
		}
		proto = layers.IPProtocol(p)
		offset += ipv6HeaderLen
	default:
		return empty
	}

	// One transport or encapsulation header per iteration. Encapsulating
	// protocols update proto and loop again, so nesting depth never grows
	// the stack.
	for again := true; again; {
		again = false
		switch proto {
		case layers.IPProtocolTCP:
			dataOff, ok := readByte(data, offset+tcpDataOffOffset)
			if !ok {
				return empty
			}
			offset += int(dataOff>>4) * 4
		case layers.IPProtocolUDP:
			offset += udpHeaderLen
		case layers.IPProtocolIPv4:
			p, ok := readByte(data, offset+ipv4ProtoOffset)
			if !ok {
				return empty
			}
			proto = layers.IPProtocol(p)
			offset += ipv4HeaderLen
			again = true
		case layers.IPProtocolIPv6:
			p, ok := readByte(data, offset+ipv6NextOffset)
			if !ok {
				return empty
			}
			proto = layers.IPProtocol(p)
			offset += ipv6HeaderLen
			again = true
		case layers.IPProtocolIPv6Fragment:
			p, ok := readByte(data, offset)
			if !ok {
				return empty
			}
			proto = layers.IPProtocol(p)
			offset += ipv6FragLen
			again = true
		case layers.IPProtocolESP:
			offset += espHeaderLen
		case layers.IPProtocolICMPv4:
			offset += icmpHeaderLen
		case layers.IPProtocolICMPv6:
			offset += icmpv6HeaderLen
		default:
			return empty
		}
	}

	if offset > capLen {
		return empty
	}
	return data[offset:]
}

// readEtherType reads the Ethernet type field, widening the header when the
// frame carries an 802.1Q tag, and returns the network-layer offset.
func readEtherType(data []byte) (layers.EthernetType, int, bool) {
	et, ok := readUint16(data, ethTypeOffset)
	if !ok {
		return 0, 0, false
	}
	if layers.EthernetType(et) != layers.EthernetTypeDot1Q {
		return layers.EthernetType(et), ethHeaderLen, true
	}
	et, ok = readUint16(data, vlanEthTypeOffset)
	if !ok {
		return 0, 0, false
	}
	return layers.EthernetType(et), vlanEthHeaderLen, true
}

func readByte(data []byte, off int) (byte, bool) {
	if off < 0 || off >= len(data) {
		return 0, false
	}
	return data[off], true
}

func readUint16(data []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(data) {
		return 0, false
	}
	return binary.BigEndian.Uint16(data[off:]), true
}

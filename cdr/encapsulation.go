package cdr

/*
The encapsulation header is the four bytes [0x00, kind, 0x00, 0x00] at the
start of every CDR message. The kind selects the wire-format generation and
the byte order. The only layout difference between CDR1 and CDR2 is that CDR2
aligns 64-bit values to 4 bytes instead of 8.
*/

////////////////////////////////////////////////////////////////////////////////

// EncapsulationKind identifies the CDR variant of a message.
type EncapsulationKind byte

const (
	CDRBigEndian              EncapsulationKind = 0x00
	CDRLittleEndian           EncapsulationKind = 0x01
	CDR2LittleEndian          EncapsulationKind = 0x02
	CDR2BigEndian             EncapsulationKind = 0x03
	PLCDRLittleEndian         EncapsulationKind = 0x04
	PLCDRBigEndian            EncapsulationKind = 0x05
	PLCDR2LittleEndian        EncapsulationKind = 0x06
	PLCDR2BigEndian           EncapsulationKind = 0x07
	DelimitedCDR2LittleEndian EncapsulationKind = 0x08
	DelimitedCDR2BigEndian    EncapsulationKind = 0x09
)

// HeaderSize is the size of the encapsulation header.
const HeaderSize = 4

// nolint: gochecknoglobals
var kindNames = map[EncapsulationKind]string{
	CDRBigEndian:              "cdr-be",
	CDRLittleEndian:           "cdr-le",
	CDR2LittleEndian:          "cdr2-le",
	CDR2BigEndian:             "cdr2-be",
	PLCDRLittleEndian:         "pl-cdr-le",
	PLCDRBigEndian:            "pl-cdr-be",
	PLCDR2LittleEndian:        "pl-cdr2-le",
	PLCDR2BigEndian:           "pl-cdr2-be",
	DelimitedCDR2LittleEndian: "delimited-cdr2-le",
	DelimitedCDR2BigEndian:    "delimited-cdr2-be",
}

// ParseEncapsulationKind looks up a kind by its name, e.g. "cdr2-le".
func ParseEncapsulationKind(name string) (EncapsulationKind, error) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, NewUnsupportedError("encapsulation kind %q", name)
}

func (k EncapsulationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the kind is a known encapsulation kind.
func (k EncapsulationKind) Valid() bool {
	return k <= DelimitedCDR2BigEndian
}

// IsCDR2 reports whether the kind belongs to the second wire-format
// generation.
func (k EncapsulationKind) IsCDR2() bool {
	switch k {
	case CDR2LittleEndian, CDR2BigEndian, PLCDR2LittleEndian, PLCDR2BigEndian,
		DelimitedCDR2LittleEndian, DelimitedCDR2BigEndian:
		return true
	default:
		return false
	}
}

// IsLittleEndian reports whether the kind uses little-endian byte order.
func (k EncapsulationKind) IsLittleEndian() bool {
	switch k {
	case CDRLittleEndian, CDR2LittleEndian, PLCDRLittleEndian, PLCDR2LittleEndian,
		DelimitedCDR2LittleEndian:
		return true
	default:
		return false
	}
}

// EightByteAlignment returns the alignment of 64-bit values.
func (k EncapsulationKind) EightByteAlignment() int {
	if k.IsCDR2() {
		return 4
	}
	return 8
}

// Header returns the encapsulation header for the kind.
func (k EncapsulationKind) Header() [HeaderSize]byte {
	return [HeaderSize]byte{0x00, byte(k), 0x00, 0x00}
}

package sstfmt

import "github.com/heliumdb/sstable/errs"

// FooterSize is the fixed on-disk size of a Footer: the repeated magic
// plus the version, mirroring the header's own leading bytes so a
// truncated or container-reused file is caught without re-parsing the
// whole header (§4.E, §6).
const FooterSize = 6

// Footer is the trailing magic/version pair a well-formed file repeats
// at end-of-file.
type Footer struct {
	Magic   uint32
	Version uint16
}

// ParseFooter reads the last FooterSize bytes of data as a Footer and
// validates that they match the expected Magic/Version, returning
// Corrupt("footer") otherwise.
func ParseFooter(data []byte) (Footer, error) {
	if len(data) < FooterSize {
		return Footer{}, errs.Wrap(errs.Corrupt, "short footer", errs.ErrShortFooter)
	}

	tail := data[len(data)-FooterSize:]
	f := Footer{
		Magic:   engine.Uint32(tail[0:4]),
		Version: engine.Uint16(tail[4:6]),
	}

	if f.Magic != Magic {
		return Footer{}, errs.Corruptf("footer", int64(len(data)-FooterSize), "bad magic repeat %#08x", f.Magic)
	}
	if f.Version != Version {
		return Footer{}, errs.Corruptf("footer", int64(len(data)-FooterSize+4), "bad version repeat %#04x", f.Version)
	}

	return f, nil
}

// Bytes serializes f to its on-disk form.
func (f Footer) Bytes() []byte {
	buf := engine.AppendUint32(nil, f.Magic)
	buf = engine.AppendUint16(buf, f.Version)
	return buf
}

// NewFooter builds the canonical footer for this package's Magic/Version.
func NewFooter() Footer {
	return Footer{Magic: Magic, Version: Version}
}

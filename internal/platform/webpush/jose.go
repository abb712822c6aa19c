package webpush

import crerr "github.com/cockroachdb/errors"

// derSignatureToJOSE converts a DER-encoded ECDSA-Sig-Value into the fixed
// width r||s form JOSE expects. intLen is the byte width of one integer
// (32 for P-256). Integers longer than intLen after stripping their sign
// padding are rejected rather than truncated.
func derSignatureToJOSE(der []byte, intLen int) ([]byte, error) {
	if len(der) < 8 || der[0] != 0x30 {
		return nil, crerr.New("der signature: not a sequence")
	}

	// Sequence length: short form, or long form with a single length byte.
	offset := 2
	seqLen := int(der[1])
	if der[1] == 0x81 {
		if len(der) < 3 {
			return nil, crerr.New("der signature: truncated long-form length")
		}
		seqLen = int(der[2])
		offset = 3
	} else if der[1] > 0x81 {
		return nil, crerr.New("der signature: sequence too long")
	}
	if len(der) != offset+seqLen {
		return nil, crerr.New("der signature: length mismatch")
	}

	r, rest, err := readDERInteger(der[offset:])
	if err != nil {
		return nil, crerr.Wrap(err, "der signature: r")
	}
	s, rest, err := readDERInteger(rest)
	if err != nil {
		return nil, crerr.Wrap(err, "der signature: s")
	}
	if len(rest) != 0 {
		return nil, crerr.New("der signature: trailing bytes")
	}

	out := make([]byte, 2*intLen)
	if err := padDERInteger(out[:intLen], r, intLen); err != nil {
		return nil, crerr.Wrap(err, "der signature: r")
	}
	if err := padDERInteger(out[intLen:], s, intLen); err != nil {
		return nil, crerr.Wrap(err, "der signature: s")
	}
	return out, nil
}

func readDERInteger(buf []byte) (value, rest []byte, err error) {
	if len(buf) < 2 || buf[0] != 0x02 {
		return nil, nil, crerr.New("expected integer tag")
	}
	length := int(buf[1])
	if length == 0 || length > 0x7f {
		return nil, nil, crerr.New("unsupported integer length")
	}
	if len(buf) < 2+length {
		return nil, nil, crerr.New("truncated integer")
	}
	return buf[2 : 2+length], buf[2+length:], nil
}

func padDERInteger(dst, value []byte, intLen int) error {
	// Drop leading zero bytes (DER sign padding), then left-pad to width.
	for len(value) > 0 && value[0] == 0x00 {
		value = value[1:]
	}
	if len(value) > intLen {
		return crerr.Newf("integer wider than %d bytes", intLen)
	}
	copy(dst[intLen-len(value):], value)
	return nil
}

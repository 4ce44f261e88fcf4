// Package pktline implements the pkt-line framing used by the git
// smart protocols: each payload is prefixed by its length, encoded
// as 4 hexadecimal bytes that cover the prefix itself
// https://git-scm.com/docs/protocol-common#_pkt_line_format
package pktline

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/xerrors"
)

const (
	// lenSize is the size of the length prefix, in bytes
	lenSize = 4

	// MaxPayloadSize is the biggest payload a single pkt-line
	// can carry
	MaxPayloadSize = 65516
)

var (
	// ErrPayloadTooLong is returned when a payload doesn't fit
	// in a single pkt-line
	ErrPayloadTooLong = errors.New("payload is too long")

	// ErrInvalidPktLen is returned when a length prefix cannot
	// be parsed or covers a reserved value
	ErrInvalidPktLen = errors.New("invalid pkt-len")

	// ErrFlush is returned by ReadPacket when a flush-pkt ("0000")
	// is read. A flush-pkt carries no payload, it separates sections
	// of a message
	ErrFlush = errors.New("flush-pkt")
)

// flushPkt is the on-wire representation of a flush-pkt
var flushPkt = []byte("0000")

// WritePacket writes a single pkt-line holding the given payload
func WritePacket(w io.Writer, p []byte) error {
	if len(p) > MaxPayloadSize {
		return ErrPayloadTooLong
	}

	if _, err := fmt.Fprintf(w, "%04x", len(p)+lenSize); err != nil {
		return xerrors.Errorf("could not write pkt-len: %w", err)
	}
	if _, err := w.Write(p); err != nil {
		return xerrors.Errorf("could not write payload: %w", err)
	}
	return nil
}

// WritePacketf writes a single pkt-line from a format string
func WritePacketf(w io.Writer, format string, a ...interface{}) error {
	return WritePacket(w, []byte(fmt.Sprintf(format, a...)))
}

// WriteFlush writes a flush-pkt
func WriteFlush(w io.Writer) error {
	_, err := w.Write(flushPkt)
	return err
}

// ReadPacket reads a single pkt-line and returns its payload.
// ErrFlush is returned when a flush-pkt is read.
// io.EOF is returned when the reader is exhausted
func ReadPacket(r io.Reader) ([]byte, error) {
	prefix := make([]byte, lenSize)
	if _, err := io.ReadFull(r, prefix); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	length, err := strconv.ParseUint(string(prefix), 16, 16)
	if err != nil {
		return nil, xerrors.Errorf("pkt-len %q: %w", string(prefix), ErrInvalidPktLen)
	}

	switch {
	case length == 0:
		return nil, ErrFlush
	case length < lenSize:
		// 0001-0003 are reserved
		return nil, xerrors.Errorf("pkt-len %d: %w", length, ErrInvalidPktLen)
	}

	payload := make([]byte, length-lenSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, xerrors.Errorf("could not read payload: %w", err)
	}
	return payload, nil
}

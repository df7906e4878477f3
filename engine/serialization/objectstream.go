package serialization

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

/** @brief A magic number indicating the stream as a sinapsi object stream. */
const StreamMagic uint32 = 0x53494e41

/** @brief The stream format version written by this package. */
const StreamVersion uint8 = 1

type StreamType uint8

/** @brief Pre-defined stream types. */
const (
	/** @brief Text stream type. Objects are JSON encoded. */
	StreamTypeText StreamType = iota
	/** @brief Binary stream type. Objects are MessagePack encoded. */
	StreamTypeBinary
)

/** @brief Flag marking the payload as LZ4 frame compressed. */
const StreamCompressed uint8 = 0x01

// Payloads longer than this are treated as stream corruption.
const maxPayloadSize = 256 << 20

/** @brief The size in bytes of an encoded stream header. */
const streamHeaderSize = 29

/**
 * @brief The header data preceding every object in a stream.
 */
type StreamHeader struct {
	/** @brief A magic number indicating the stream as a sinapsi object stream. */
	MagicNumber uint32
	/** @brief The format version this stream uses. */
	Version uint8
	/** @brief The stream type. Maps to the enum StreamType. */
	StreamType StreamType
	/** @brief Flags such as StreamCompressed. */
	Flags uint8
	/** @brief Reserved for future header data.. */
	Reserved uint16
	/** @brief The serialize context id of the encoded type. */
	TypeID uuid.UUID
	/** @brief The encoded payload size in bytes. */
	PayloadSize uint32
}

func (h *StreamHeader) encode() []byte {
	buf := make([]byte, 0, streamHeaderSize)
	buf = appendUint32(buf, h.MagicNumber)
	buf = append(buf, h.Version, byte(h.StreamType), h.Flags)
	buf = appendUint16(buf, h.Reserved)
	buf = append(buf, h.TypeID[:]...)
	buf = appendUint32(buf, h.PayloadSize)
	return buf
}

func decodeHeader(b []byte) StreamHeader {
	h := StreamHeader{
		MagicNumber: readUint32(b[0:4]),
		Version:     b[4],
		StreamType:  StreamType(b[5]),
		Flags:       b[6],
		Reserved:    readUint16(b[7:9]),
		PayloadSize: readUint32(b[25:29]),
	}
	copy(h.TypeID[:], b[9:25])
	return h
}

/**
 * @brief A writer that serializes registered objects to a stream, each
 * prefixed with a StreamHeader. Call Finalize once after the last object.
 */
type ObjectStream struct {
	context    *Context
	writer     *bufio.Writer
	streamType StreamType
	flags      uint8
	finalized  bool
}

func NewObjectStream(w io.Writer, context *Context, streamType StreamType, flags uint8) *ObjectStream {
	return &ObjectStream{
		context:    context,
		writer:     bufio.NewWriter(w),
		streamType: streamType,
		flags:      flags,
	}
}

// WriteObject serializes v, which must be registered in the stream's context.
func (s *ObjectStream) WriteObject(v interface{}) error {
	if s.finalized {
		return ErrStreamFinalized
	}
	info, found := s.context.LookupValue(v)
	if !found {
		return fmt.Errorf("%w: %T", ErrUnknownType, v)
	}

	payload, err := encodePayload(s.streamType, v)
	if err != nil {
		return err
	}
	if s.flags&StreamCompressed != 0 {
		payload, err = compress(payload)
		if err != nil {
			return err
		}
	}

	header := StreamHeader{
		MagicNumber: StreamMagic,
		Version:     StreamVersion,
		StreamType:  s.streamType,
		Flags:       s.flags,
		TypeID:      info.ID,
		PayloadSize: uint32(len(payload)),
	}
	if _, err := s.writer.Write(header.encode()); err != nil {
		return err
	}
	_, err = s.writer.Write(payload)
	return err
}

// Finalize flushes buffered bytes. The stream accepts no more objects after.
func (s *ObjectStream) Finalize() error {
	if s.finalized {
		return ErrStreamFinalized
	}
	s.finalized = true
	return s.writer.Flush()
}

// ReadHeader reads and validates the next object header from r.
func ReadHeader(r io.Reader) (StreamHeader, error) {
	var buf [streamHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return StreamHeader{}, err
	}
	header := decodeHeader(buf[:])
	if header.MagicNumber != StreamMagic {
		return header, fmt.Errorf("%w: 0x%08x", ErrBadMagic, header.MagicNumber)
	}
	if header.Version > StreamVersion {
		return header, fmt.Errorf("%w: %d", ErrBadVersion, header.Version)
	}
	if header.PayloadSize > maxPayloadSize {
		return header, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, header.PayloadSize)
	}
	return header, nil
}

// ReadObjectInto decodes the next object in r into v, which must be a pointer
// to a value of the same registered type the stream was written from.
func ReadObjectInto(context *Context, r io.Reader, v interface{}) error {
	header, err := ReadHeader(r)
	if err != nil {
		return err
	}
	info, found := context.LookupValue(v)
	if !found {
		return fmt.Errorf("%w: %T", ErrUnknownType, v)
	}
	if info.ID != header.TypeID {
		name := header.TypeID.String()
		if streamInfo, found := context.LookupID(header.TypeID); found {
			name = streamInfo.Name
		}
		return fmt.Errorf("%w: found %s, want %s", ErrTypeMismatch, name, info.Name)
	}
	payload, err := readPayload(r, header)
	if err != nil {
		return err
	}
	return decodePayload(header.StreamType, payload, v)
}

// ReadObject decodes the next object in r into a fresh instance built from
// the registration named in the stream header.
func ReadObject(context *Context, r io.Reader) (interface{}, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	v, err := context.Instantiate(header.TypeID)
	if err != nil {
		return nil, err
	}
	payload, err := readPayload(r, header)
	if err != nil {
		return nil, err
	}
	if err := decodePayload(header.StreamType, payload, v); err != nil {
		return nil, err
	}
	return v, nil
}

func readPayload(r io.Reader, header StreamHeader) ([]byte, error) {
	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if header.Flags&StreamCompressed != 0 {
		return decompress(payload)
	}
	return payload, nil
}

func encodePayload(streamType StreamType, v interface{}) ([]byte, error) {
	switch streamType {
	case StreamTypeText:
		return json.Marshal(v)
	case StreamTypeBinary:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown stream type %d", streamType)
	}
}

func decodePayload(streamType StreamType, payload []byte, v interface{}) error {
	switch streamType {
	case StreamTypeText:
		return json.Unmarshal(payload, v)
	case StreamTypeBinary:
		return msgpack.Unmarshal(payload, v)
	default:
		return fmt.Errorf("unknown stream type %d", streamType)
	}
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(payload []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(payload))
	return io.ReadAll(zr)
}

func appendUint16(dst []byte, v uint16) []byte {
	return append(dst, byte(v), byte(v>>8))
}

func appendUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func readUint16(b []byte) uint16 {
	v := uint16(0)
	v |= uint16(b[0])
	v |= uint16(b[1]) << 8
	return v
}

func readUint32(b []byte) uint32 {
	v := uint32(0)
	v |= uint32(b[0])
	v |= uint32(b[1]) << 8
	v |= uint32(b[2]) << 16
	v |= uint32(b[3]) << 24
	return v
}

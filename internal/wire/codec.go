// Package wire implements the Wire Codec: encoding and decoding of the
// three message types (TAB, LSA, COS) to and from length-bounded UDP
// datagrams, per spec §4.1.
//
// Frames are newline-separated text fields. The JSON fields (the
// distance-vector in TAB, the neighbor-cost map in LSA) are built and read
// with tidwall/gjson and tidwall/sjson rather than encoding/json: both are
// small, flat, path-addressable objects, and sjson.Set/gjson.Get avoid
// defining a one-shot marshal struct for a map-of-2-tuples shape.
//
// Infinity encoding: a +∞ cost (used only in poisoned-reverse
// advertisements) is written as the JSON string "Infinity". This keeps
// every frame strict JSON — parseable by any standard decoder, not just a
// permissive one — while remaining unambiguous to this codec's reader.
package wire

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/amhuang/routing-protocols/internal/routing"
)

// MaxFrameBytes is the largest UDP datagram this codec will produce or
// accept, per spec §4.1/§5.
const MaxFrameBytes = 2048

// InfinityToken is the wire encoding chosen for a +∞ cost.
const InfinityToken = "Infinity"

// Kind identifies which of the three message types a Frame carries.
type Kind int

const (
	// KindUnknown is returned for a frame whose first field does not match
	// any known message type. Per §4.1 such frames are dropped silently by
	// the caller but counted as a decode error for testing purposes.
	KindUnknown Kind = iota
	KindTAB
	KindLSA
	KindCOS
)

func (k Kind) String() string {
	switch k {
	case KindTAB:
		return "TAB"
	case KindLSA:
		return "LSA"
	case KindCOS:
		return "COS"
	default:
		return "UNKNOWN"
	}
}

// TabFrame carries a sender's distance vector.
type TabFrame struct {
	Vector routing.Table
}

// LsaFrame carries an origin's neighbor-cost map and sequence number.
type LsaFrame struct {
	Origin    int
	Neighbors map[int]int
	Sequence  float64

	// raw* preserve the exact text fields as received, so a flooded LSA can
	// be re-transmitted byte-identical per §4.4 rather than re-encoded from
	// the parsed, re-formatted values.
	rawOrigin   string
	rawPayload  string
	rawSequence string
}

// CosFrame carries a new link cost for the receiving neighbor to apply.
type CosFrame struct {
	Cost int
}

// Frame is the tagged union of the three wire message types. Exactly one
// of TAB, LSA, COS is non-nil, selected by Kind.
type Frame struct {
	Kind Kind
	TAB  *TabFrame
	LSA  *LsaFrame
	COS  *CosFrame
}

// ErrDecode is returned (wrapped with more context) for any datagram that
// cannot be interpreted: an unknown message type or a malformed field. A
// payload over MaxFrameBytes gets ErrTooLarge instead. Per §7(b) the caller
// drops these silently after logging a diagnostic.
var ErrDecode = errors.New("wire: decode error")

// ErrTooLarge is returned by EncodeTAB/EncodeLSA/EncodeCOS and Decode when a
// frame would exceed or does exceed MaxFrameBytes.
var ErrTooLarge = errors.New("wire: frame exceeds 2048 bytes")

// EncodeTAB builds a TAB frame from a routing table.
func EncodeTAB(vector routing.Table) ([]byte, error) {
	body, err := encodeVector(vector)
	if err != nil {
		return nil, fmt.Errorf("wire: encode TAB: %w", err)
	}
	return finish("TAB\n" + body + "\n")
}

// EncodeLSA builds an LSA frame for the given origin, neighbor-cost map,
// and sequence number.
func EncodeLSA(origin int, neighbors map[int]int, sequence float64) ([]byte, error) {
	body := "{}"
	var err error
	for port, cost := range neighbors {
		body, err = sjson.Set(body, strconv.Itoa(port), cost)
		if err != nil {
			return nil, fmt.Errorf("wire: encode LSA neighbors: %w", err)
		}
	}
	frame := fmt.Sprintf("LSA\n%d\n%s\n%s", origin, body, formatSequence(sequence))
	return finish(frame)
}

// EncodeCOS builds a COS frame carrying a new link cost.
func EncodeCOS(cost int) ([]byte, error) {
	return finish(fmt.Sprintf("COS\n%d", cost))
}

// finish enforces the size cap shared by every frame type.
func finish(s string) ([]byte, error) {
	if len(s) > MaxFrameBytes {
		return nil, ErrTooLarge
	}
	return []byte(s), nil
}

// Decode parses a received datagram into a Frame. A trailing newline is
// tolerated and ignored. Oversized payloads, unknown message types, and
// malformed fields all return an error wrapping ErrDecode (or, for size,
// ErrTooLarge); the caller is expected to drop the datagram and continue.
func Decode(data []byte) (Frame, error) {
	if len(data) > MaxFrameBytes {
		return Frame{}, ErrTooLarge
	}
	text := strings.TrimSuffix(string(data), "\n")
	fields := strings.Split(text, "\n")
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("%w: empty datagram", ErrDecode)
	}

	switch fields[0] {
	case "TAB":
		return decodeTAB(fields)
	case "LSA":
		return decodeLSA(fields)
	case "COS":
		return decodeCOS(fields)
	default:
		return Frame{Kind: KindUnknown}, fmt.Errorf("%w: unknown message type %q", ErrDecode, fields[0])
	}
}

func decodeTAB(fields []string) (Frame, error) {
	if len(fields) < 2 {
		return Frame{}, fmt.Errorf("%w: TAB missing vector field", ErrDecode)
	}
	vector, err := decodeVector(fields[1])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: TAB vector: %v", ErrDecode, err)
	}
	return Frame{Kind: KindTAB, TAB: &TabFrame{Vector: vector}}, nil
}

func decodeLSA(fields []string) (Frame, error) {
	if len(fields) < 4 {
		return Frame{}, fmt.Errorf("%w: LSA missing fields", ErrDecode)
	}
	origin, err := strconv.Atoi(fields[1])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: LSA origin: %v", ErrDecode, err)
	}
	if !gjson.Valid(fields[2]) {
		return Frame{}, fmt.Errorf("%w: LSA neighbor map is not valid JSON", ErrDecode)
	}
	neighbors := make(map[int]int)
	var parseErr error
	gjson.Parse(fields[2]).ForEach(func(key, value gjson.Result) bool {
		port, err := strconv.Atoi(key.String())
		if err != nil {
			parseErr = err
			return false
		}
		neighbors[port] = int(value.Int())
		return true
	})
	if parseErr != nil {
		return Frame{}, fmt.Errorf("%w: LSA neighbor map: %v", ErrDecode, parseErr)
	}
	seq, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: LSA sequence: %v", ErrDecode, err)
	}
	return Frame{Kind: KindLSA, LSA: &LsaFrame{
		Origin:      origin,
		Neighbors:   neighbors,
		Sequence:    seq,
		rawOrigin:   fields[1],
		rawPayload:  fields[2],
		rawSequence: fields[3],
	}}, nil
}

func decodeCOS(fields []string) (Frame, error) {
	if len(fields) < 2 {
		return Frame{}, fmt.Errorf("%w: COS missing cost field", ErrDecode)
	}
	cost, err := strconv.Atoi(fields[1])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: COS cost: %v", ErrDecode, err)
	}
	return Frame{Kind: KindCOS, COS: &CosFrame{Cost: cost}}, nil
}

func encodeVector(vector routing.Table) (string, error) {
	body := "{}"
	var err error
	for dst, entry := range vector {
		var value interface{}
		if math.IsInf(entry.Cost, 1) {
			value = []interface{}{InfinityToken, entry.NextHop}
		} else {
			value = []interface{}{int64(entry.Cost), entry.NextHop}
		}
		body, err = sjson.Set(body, strconv.Itoa(dst), value)
		if err != nil {
			return "", err
		}
	}
	return body, nil
}

func decodeVector(jsonText string) (routing.Table, error) {
	if !gjson.Valid(jsonText) {
		return nil, errors.New("not valid JSON")
	}
	table := routing.New()
	var parseErr error
	gjson.Parse(jsonText).ForEach(func(key, value gjson.Result) bool {
		dst, err := strconv.Atoi(key.String())
		if err != nil {
			parseErr = err
			return false
		}
		arr := value.Array()
		if len(arr) != 2 {
			parseErr = fmt.Errorf("entry for %d is not a 2-element array", dst)
			return false
		}
		cost, err := decodeCost(arr[0])
		if err != nil {
			parseErr = err
			return false
		}
		table[dst] = routing.Entry{Cost: cost, NextHop: int(arr[1].Int())}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return table, nil
}

func decodeCost(r gjson.Result) (float64, error) {
	if r.Type == gjson.String {
		if r.Str == InfinityToken {
			return routing.Infinity, nil
		}
		return 0, fmt.Errorf("unrecognized cost token %q", r.Str)
	}
	return r.Float(), nil
}

func formatSequence(seq float64) string {
	return strconv.FormatFloat(seq, 'f', -1, 64)
}

// RawNeighborJSON returns the exact JSON payload as received.
func (f LsaFrame) RawNeighborJSON() string {
	return f.rawPayload
}

// RawFrame reconstructs the exact datagram bytes as received, for LSA
// frames that must be re-transmitted byte-identical to every neighbor
// except the sender (§4.4: "re-transmit the byte-identical frame").
func (f LsaFrame) RawFrame() []byte {
	return []byte("LSA\n" + f.rawOrigin + "\n" + f.rawPayload + "\n" + f.rawSequence)
}

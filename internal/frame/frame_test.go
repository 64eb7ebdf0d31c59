package frame

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, streamID uint32, body Payload) *Header {
	t.Helper()

	in := AcquireHeader()
	defer ReleaseHeader(in)
	in.SetStream(streamID)
	in.SetBody(body)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := in.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	out, err := ReadHeaderFrom(bufio.NewReader(&buf), MaxFrameSizeUpperBound)
	require.NoError(t, err)
	t.Cleanup(func() { ReleaseHeader(out) })

	require.Equal(t, body.Type(), out.Type())
	require.Equal(t, streamID, out.Stream())
	return out
}

func TestDataRoundTrip(t *testing.T) {
	d := &Data{}
	d.SetBytes([]byte("hello grpc"))
	d.SetEndStream(true)

	out := roundTrip(t, 1, d)
	got := out.Body().(*Data)
	require.Equal(t, []byte("hello grpc"), got.Bytes())
	require.True(t, got.EndStream())
}

func TestDataEmptyPayload(t *testing.T) {
	d := &Data{}
	out := roundTrip(t, 3, d)
	require.Empty(t, out.Body().(*Data).Bytes())
}

func TestHeadersRoundTrip(t *testing.T) {
	h := &Headers{}
	h.SetHeaderBlock([]byte{0x82, 0x86, 0x84})
	h.SetEndHeaders(true)
	h.SetEndStream(false)

	out := roundTrip(t, 1, h)
	got := out.Body().(*Headers)
	require.Equal(t, []byte{0x82, 0x86, 0x84}, got.HeaderBlock())
	require.True(t, got.EndHeaders())
	require.False(t, got.EndStream())
}

func TestSettingsRoundTrip(t *testing.T) {
	s := &Settings{}
	s.Add(SettingInitialWindowSize, 65535)
	s.Add(SettingMaxConcurrentStreams, 100)

	out := roundTrip(t, 0, s)
	got := out.Body().(*Settings)

	var seen []uint32
	got.ForEach(func(id uint16, value uint32) { seen = append(seen, value) })
	require.Equal(t, []uint32{65535, 100}, seen)
}

func TestSettingsAck(t *testing.T) {
	s := &Settings{}
	s.SetAck(true)
	out := roundTrip(t, 0, s)
	require.True(t, out.Body().(*Settings).IsAck())
}

func TestSettingsBadLengthRejected(t *testing.T) {
	in := AcquireHeader()
	defer ReleaseHeader(in)
	in.SetStream(0)
	s := &Settings{}
	s.Add(SettingMaxFrameSize, 16384)
	in.SetBody(s)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := in.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	// truncate the payload by one byte and shrink the length field to match,
	// so the frame is well-formed but breaks the multiple-of-6 invariant
	raw := buf.Bytes()[:buf.Len()-1]
	raw[2]--
	_, err = ReadHeaderFrom(bufio.NewReader(bytes.NewReader(raw)), MaxFrameSizeUpperBound)
	require.ErrorIs(t, err, ErrBadSettingsLength)
}

func TestPingRoundTrip(t *testing.T) {
	p := &Ping{}
	p.SetData([]byte("12345678"))
	out := roundTrip(t, 0, p)
	require.Equal(t, []byte("12345678"), out.Body().(*Ping).Data())
}

func TestPingRejectsWrongLength(t *testing.T) {
	p := &Ping{}
	require.Error(t, p.Deserialize(&Header{}))
}

func TestGoAwayRoundTrip(t *testing.T) {
	g := &GoAway{}
	g.SetLastStreamID(41)
	g.SetCode(ErrCodeFlowControl)
	g.SetDebugString("window exceeded")

	out := roundTrip(t, 0, g)
	got := out.Body().(*GoAway)
	require.EqualValues(t, 41, got.LastStreamID())
	require.Equal(t, ErrCodeFlowControl, got.Code())
	require.Equal(t, "window exceeded", string(got.Debug()))
}

func TestWindowUpdateRejectsZero(t *testing.T) {
	h := &Header{}
	w := &WindowUpdate{}
	h.payload = []byte{0, 0, 0, 0}
	require.ErrorIs(t, w.Deserialize(h), ErrBadWindowIncrement)
}

func TestWindowUpdateRoundTrip(t *testing.T) {
	w := &WindowUpdate{}
	w.SetIncrement(65535)
	out := roundTrip(t, 5, w)
	require.EqualValues(t, 65535, out.Body().(*WindowUpdate).Increment())
}

func TestRSTStreamRoundTrip(t *testing.T) {
	r := &RSTStream{}
	r.SetCode(ErrCodeCancel)
	out := roundTrip(t, 7, r)
	require.Equal(t, ErrCodeCancel, out.Body().(*RSTStream).Code())
}

func TestMaxFrameSizeEnforced(t *testing.T) {
	in := AcquireHeader()
	defer ReleaseHeader(in)
	in.SetStream(1)
	d := &Data{}
	d.SetBytes(make([]byte, 100))
	in.SetBody(d)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := in.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	_, err = ReadHeaderFrom(bufio.NewReader(&buf), 16)
	require.ErrorIs(t, err, ErrPayloadExceeds)
}

func TestContinuationRoundTrip(t *testing.T) {
	c := &Continuation{}
	c.SetHeaderBlock([]byte{0x82, 0x86})
	c.SetEndHeaders(true)

	out := roundTrip(t, 1, c)
	got := out.Body().(*Continuation)
	require.Equal(t, []byte{0x82, 0x86}, got.HeaderBlock())
	require.True(t, got.EndHeaders())
}

func TestPriorityRoundTrip(t *testing.T) {
	p := &Priority{exclusive: true, streamDep: 3, weight: 200}

	out := roundTrip(t, 1, p)
	got := out.Body().(*Priority)
	require.True(t, got.Exclusive())
	require.EqualValues(t, 3, got.StreamDep())
	require.EqualValues(t, 200, got.Weight())
}

func TestPriorityRejectsStreamZero(t *testing.T) {
	p := &Priority{}
	h := &Header{}
	h.SetStream(0)
	require.ErrorIs(t, p.Deserialize(h), ErrStreamZero)
}

func TestPushPromiseRoundTrip(t *testing.T) {
	p := &PushPromise{block: []byte{0x82}}

	out := roundTrip(t, 1, p)
	got := out.Body().(*PushPromise)
	require.Equal(t, []byte{0x82}, got.block)
}

func TestPushPromiseRejectsStreamZero(t *testing.T) {
	p := &PushPromise{}
	h := &Header{}
	h.SetStream(0)
	require.ErrorIs(t, p.Deserialize(h), ErrStreamZero)
}

func TestUnknownFrameTypeRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0xff, 0, 0, 0, 0, 1})
	_, err := ReadHeaderFrom(bufio.NewReader(&buf), MaxFrameSizeUpperBound)
	require.ErrorIs(t, err, ErrUnknownFrameType)
}

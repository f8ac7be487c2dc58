package payload

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDispatch(t *testing.T) {
	p, err := Decode([]byte(validV1))
	require.NoError(t, err)
	_, ok := p.(*V1)
	assert.True(t, ok)

	p, err = Decode([]byte(validV2))
	require.NoError(t, err)
	_, ok = p.(*V2)
	assert.True(t, ok)
}

func TestDecodeVersionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown number", input: `{"version":3}`},
		{name: "string version", input: `{"version":"2"}`},
		{name: "missing version", input: `{"name":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			assert.ErrorIs(t, err, ErrUnsupportedVersion)
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.Equal(t, []string{"$.version"}, violationPaths(t, err))
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"version":2,`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, []string{"$"}, violationPaths(t, err))
}

func TestDecodeSizeCheckedFirst(t *testing.T) {
	// structurally invalid and oversized: only the size is reported
	data := []byte(`{"version":9,"name":"` + strings.Repeat("a", MaxBytes) + `"}`)
	_, err := Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.NotErrorIs(t, err, ErrInvalidPayload)

	var serr *SizeError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, len(data), serr.Size)
	assert.Equal(t, MaxBytes, serr.Limit)
}

func TestDecodeBoundary(t *testing.T) {
	base := `{"version":1,"canvas":{"width":2000,"height":2000},"entities":[],"frames":[],"pad":""}`
	fill := MaxBytes - len(base)
	exact := []byte(strings.Replace(base, `"pad":""`, `"pad":"`+strings.Repeat("x", fill)+`"`, 1))
	require.Len(t, exact, MaxBytes)
	_, err := Decode(exact)
	require.NoError(t, err)

	over := []byte(strings.Replace(base, `"pad":""`, `"pad":"`+strings.Repeat("x", fill+1)+`"`, 1))
	_, err = Decode(over)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDecodeCompactsWhitespace(t *testing.T) {
	padded := append([]byte(validV1), bytes.Repeat([]byte(" \n"), MaxBytes)...)
	_, err := Decode(padded)
	require.NoError(t, err)
}

func TestDecodeWithMaxBytes(t *testing.T) {
	_, err := Decode([]byte(validV1), WithMaxBytes(16))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = Decode([]byte(validV1), WithMaxBytes(0))
	assert.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	p := sampleProject()
	p.Frames[1].Entities[0].Label = "10"
	p.Frames[0].Entities[0].Label = "10"
	p.Frames[0].Entities[0].Color = "#00f"

	v2 := EncodeV2(p)
	b, err := Marshal(v2)
	require.NoError(t, err)
	decoded, err := Decode(b)
	require.NoError(t, err)
	if diff := cmp.Diff(Payload(v2), decoded); diff != "" {
		t.Errorf("v2 round trip mismatch (-want +got):\n%s", diff)
	}

	v1, err := EncodeV1(p)
	require.NoError(t, err)
	b, err = Marshal(v1)
	require.NoError(t, err)
	decoded, err = Decode(b)
	require.NoError(t, err)
	if diff := cmp.Diff(Payload(v1), decoded); diff != "" {
		t.Errorf("v1 round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSize(t *testing.T) {
	v2 := EncodeV2(sampleProject())
	b, err := Marshal(v2)
	require.NoError(t, err)
	n, err := Size(v2)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.NoError(t, CheckSize(b, n))
	assert.ErrorIs(t, CheckSize(b, n-1), ErrPayloadTooLarge)
}

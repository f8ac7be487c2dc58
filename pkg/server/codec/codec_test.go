package codec

import (
	"testing"

	"gotest.tools/v3/assert"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCodecRoundTrip(t *testing.T) {
	c := New()
	assert.Equal(t, c.Name(), "json")

	data, err := c.Marshal(&sample{Name: "lineout", Count: 3})
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"name":"lineout","count":3}`)

	var got sample
	assert.NilError(t, c.Unmarshal(data, &got))
	assert.DeepEqual(t, got, sample{Name: "lineout", Count: 3})
}

func TestCodecEmptyBody(t *testing.T) {
	var got sample
	assert.NilError(t, New().Unmarshal(nil, &got))
	assert.DeepEqual(t, got, sample{})
}

func TestCodecMalformed(t *testing.T) {
	var got sample
	err := New().Unmarshal([]byte(`{"name":`), &got)
	assert.ErrorContains(t, err, "unmarshal into *codec.sample")
}

package application

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorCodec_RoundTrip(t *testing.T) {
	codec := CursorCodec{}
	for _, x := range []int{0, 1, 2, 9, 10, 99, 12345, 1 << 30} {
		assert.Equal(t, x, codec.Decode(codec.Encode(x)), "offset %d", x)
	}
}

func TestCursorCodec_WireFormat(t *testing.T) {
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("42")), CursorCodec{}.Encode(42))
}

func TestCursorCodec_DecodeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{name: "vacío", cursor: ""},
		{name: "no es base64", cursor: "%%%"},
		{name: "base64 sin número", cursor: base64.StdEncoding.EncodeToString([]byte("abc"))},
		{name: "offset negativo", cursor: base64.StdEncoding.EncodeToString([]byte("-5"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0, CursorCodec{}.Decode(tt.cursor))
		})
	}
}

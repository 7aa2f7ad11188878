package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Label int    `json:"label"`
	Data  []byte `json:"data"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("protobuf")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	in := payload{Label: 3, Data: []byte{1, 2, 3}}

	a, err := JSON{}.Marshal(in)
	require.NoError(t, err)
	b, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	var out payload
	require.NoError(t, GoJSON{}.Unmarshal(a, &out))
	assert.Equal(t, in, out)
}

func BenchmarkUnmarshal(b *testing.B) {
	data := MustMarshal(JSON{}, payload{Label: 7, Data: make([]byte, 3*32*32)})

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				var p payload
				if err := c.Unmarshal(data, &p); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

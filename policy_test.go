package labelsampler

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"siamese", Siamese},
		{"DataSiamese", Siamese},
		{"pair", Pair},
		{"Singleton", Pair},
		{"DataSingleton", Pair},
		{" triplet ", Triplet},
		{"DATATRIPLET", Triplet},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParsePolicy("quadruplet")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Equal(t, "Policy(7)", Policy(7).String())
	assert.Empty(t, Policy(7).TypeName())
}

func TestParams_Validate(t *testing.T) {
	valid := Params{Source: "train.seg", Backend: BackendSegment, BatchSize: 8, Policy: Triplet}
	require.NoError(t, valid.Validate())

	p := valid
	p.BatchSize = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidBatchSize)

	p = valid
	p.Policy = Policy(9)
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = valid
	p.Backend = "lmdb"
	assert.ErrorIs(t, p.Validate(), ErrUnknownBackend)

	p = valid
	p.Source = ""
	assert.Error(t, p.Validate())

	assert.NoError(t, Params{Backend: BackendMemory, BatchSize: 1}.Validate())
}

func TestParams_FromEnv(t *testing.T) {
	t.Setenv("TEST_SOURCE", "s3://bucket/train.seg")
	t.Setenv("TEST_BACKEND", "S3")
	t.Setenv("TEST_BATCH_SIZE", "32")
	t.Setenv("TEST_POLICY", "DataSingleton")

	var p struct {
		Source    string  `envconfig:"SOURCE"`
		Backend   Backend `envconfig:"BACKEND"`
		BatchSize int     `envconfig:"BATCH_SIZE"`
		Policy    Policy  `envconfig:"POLICY"`
	}
	require.NoError(t, envconfig.Process("TEST", &p))

	assert.Equal(t, BackendS3, p.Backend)
	assert.Equal(t, Pair, p.Policy)
	assert.Equal(t, 32, p.BatchSize)
}

func TestBlob(t *testing.T) {
	b := NewBlob(2, 3)
	assert.Equal(t, 6, b.Count())
	assert.Equal(t, 2, b.Num())
	assert.Equal(t, 3, b.ItemCount())
	assert.Equal(t, 3, b.Offset(1))

	copy(b.Item(1), []float32{1, 2, 3})
	assert.Equal(t, []float32{0, 0, 0, 1, 2, 3}, b.Data)

	b.Reshape(1, 2)
	assert.Equal(t, []float32{0, 0}, b.Data)
	assert.Equal(t, 6, cap(b.Data))

	assert.Zero(t, (&Blob{}).ItemCount())
	assert.Equal(t, "2,1,28,28", shapeString([]int{2, 1, 28, 28}))
}

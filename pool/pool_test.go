package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketOf(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		size       uint64
		wantBucket int
		wantOK     bool
	}{
		{0, 0, true},
		{1, 0, true},
		{64, 0, true},
		{65, 1, true},
		{128, 1, true},
		{4096, 6, true},
		{4097, 7, true},
		{1 << MaxBucketBits, MaxBucketBits - MinBucketBits, true},
		{1<<MaxBucketBits + 1, 0, false},
	} {
		bucket, ok := bucketOf(tc.size)
		require.Equal(t, tc.wantOK, ok, tc.size)
		require.Equal(t, tc.wantBucket, bucket, tc.size)
	}
}

func TestGetIsZeroed(t *testing.T) {
	t.Parallel()
	p := NewBytes()

	b := p.Get(100)
	require.Len(t, b, 100)
	require.Equal(t, 128, cap(b))
	for idx := range b {
		b[idx] = 0xff
	}
	p.Put(b)

	// whether or not the same memory comes back, it is cleared
	for range 4 {
		b := p.Get(120)
		require.Len(t, b, 120)
		for _, v := range b {
			require.Zero(t, v)
		}
		p.Put(b)
	}
}

func TestPutIgnoresForeignSlices(t *testing.T) {
	t.Parallel()
	p := NewBytes()
	p.Put(nil)
	p.Put(make([]byte, 100))
	p.Put(make([]byte, 32))

	b := p.Get(32)
	require.Equal(t, 1<<MinBucketBits, cap(b))
}

func TestGetOversized(t *testing.T) {
	t.Parallel()
	p := NewBytes()
	size := uint64(1<<MaxBucketBits + 1)
	b := p.Get(size)
	require.Len(t, b, int(size))
	require.Equal(t, int(size), cap(b))
	p.Put(b)
}

package vector

import (
	"context"
	"testing"
)

func BenchmarkFlatIndex_Search(b *testing.B) {
	const users, dims = 10000, 20
	idx, _ := NewFlatIndex(dims)
	ctx := context.Background()
	vecs := make([][]float32, users)
	ids := make([]int64, users)
	for i := 0; i < users; i++ {
		vecs[i] = make([]float32, dims)
		vecs[i][0] = float32(i) / users
		vecs[i][i%dims] += 1
		ids[i] = int64(i + 1)
	}
	_ = idx.Add(ctx, ids, vecs)
	query := make([]float32, dims)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, query, 10)
	}
}

func BenchmarkDistance(b *testing.B) {
	x := make([]float32, 20)
	y := make([]float32, 20)
	for i := range x {
		x[i] = float32(i)
		y[i] = float32(20 - i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Distance(x, y)
	}
}

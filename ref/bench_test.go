package ref

import "testing"

func BenchmarkClone_RefCount(b *testing.B) {
	x := &localTarget{}
	p := New(x)
	defer p.Release()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := p.Clone()
		q.Release()
	}
}

func BenchmarkClone_AtomicRefCount(b *testing.B) {
	x := &sharedTarget{}
	p := New(x)
	defer p.Release()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := p.Clone()
		q.Release()
	}
}

func BenchmarkClone_AtomicParallel(b *testing.B) {
	x := &sharedTarget{}
	p := New(x)
	defer p.Release()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			q := p.Clone()
			q.Release()
		}
	})
}

func BenchmarkMove(b *testing.B) {
	x := &sharedTarget{}
	var p Ptr[*sharedTarget]
	p.ResetTo(x)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q := p.Move()
		p.MoveFrom(q)
	}
	p.Release()
}

// Package mempool provides sized pools for the pixel-plane buffers the
// detector and enhancer allocate on every frame.
package mempool

import (
	"sync"
)

var (
	float32Pools sync.Map // key: size class (int), value: *sync.Pool
	bytePools    sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

// GetFloat32 retrieves a []float32 buffer of at least n elements from the
// pool. The returned slice has length n but may have larger capacity.
// The caller must return it via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	cls := sizeClass(n)
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]float32, cls)[:n]
	}
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < cls {
		buf = make([]float32, cls)
	}
	return buf[:cap(buf)][:n]
}

// PutFloat32 returns a buffer to the pool. Safe to pass a nil slice.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetByte retrieves a zeroed []byte buffer of at least n elements from the
// pool, for use as binary masks and label scratch. The caller must return
// it via PutByte when done.
func GetByte(n int) []byte {
	cls := sizeClass(n)
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]byte, cls)[:n]
	}
	buf, ok := p.Get().([]byte)
	if !ok || cap(buf) < cls {
		buf = make([]byte, cls)
	}
	buf = buf[:cap(buf)][:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// PutByte returns a buffer to the pool. Safe to pass a nil slice.
func PutByte(buf []byte) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

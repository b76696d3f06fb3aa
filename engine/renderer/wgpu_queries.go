package renderer

import (
	"encoding/binary"
	"log"

	"github.com/cogentcore/webgpu/wgpu"
)

// WebGPU timestamps are reported in nanoseconds.
const wgpuTimestampFrequency = 1_000_000_000

type queryStatus int

const (
	queryIdle queryStatus = iota
	// queryRecorded: the resolve and copy are in the open command stream.
	queryRecorded
	// queryMapping: submitted, waiting for the map callback.
	queryMapping
	// queryMapped: the readback buffer is mapped and holds the value.
	queryMapped
	// queryReady: the value has been read and the buffer unmapped.
	queryReady
	// queryFailed: the readback could not be mapped.
	queryFailed
)

// wgpuQuery is the WGPU implementation of Query. A timestamp query owns a one-entry
// query set plus resolve and readback buffers. A disjoint query owns nothing; it
// tracks the timestamp queries written while it was open.
type wgpuQuery struct {
	disjoint bool

	set      *wgpu.QuerySet
	resolve  *wgpu.Buffer
	readback *wgpu.Buffer
	status   queryStatus
	value    uint64

	members  []*wgpuQuery
	closed   bool
	released bool
}

var _ Query = &wgpuQuery{}

func (q *wgpuQuery) Release() {
	if q.released {
		return
	}
	q.released = true
	if q.disjoint {
		return
	}
	if q.status == queryMapped {
		q.readback.Unmap()
	}
	q.set.Release()
	q.resolve.Release()
	q.readback.Release()
}

// wgpuQueryState tracks the queries recorded into the current frame.
type wgpuQueryState struct {
	recorded []*wgpuQuery
	open     *wgpuQuery
	all      []*wgpuQuery
}

func newWGPUQueryState() *wgpuQueryState {
	return &wgpuQueryState{}
}

// mapSubmitted starts the readback of every timestamp recorded this frame. It must be
// called after the frame's command buffer was submitted.
func (s *wgpuQueryState) mapSubmitted() {
	for _, q := range s.recorded {
		if q.released {
			continue
		}
		q.status = queryMapping
		err := q.readback.MapAsync(wgpu.MapModeRead, 0, 8, func(status wgpu.BufferMapAsyncStatus) {
			if status == wgpu.BufferMapAsyncStatusSuccess {
				q.status = queryMapped
			} else {
				q.status = queryFailed
			}
		})
		if err != nil {
			q.status = queryFailed
		}
	}
	s.recorded = s.recorded[:0]
}

func (s *wgpuQueryState) release() {
	for _, q := range s.all {
		q.Release()
	}
	s.all = nil
	s.recorded = nil
}

func (b *wgpuRendererBackendImpl) CreateTimestampQuery() (Query, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.timestamps {
		return nil, ErrTimestampsUnsupported
	}
	set, err := b.device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Label: "Timestamp Query",
		Type:  wgpu.QueryTypeTimestamp,
		Count: 1,
	})
	if err != nil {
		return nil, err
	}
	resolve, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Timestamp Resolve",
		Size:  8,
		Usage: wgpu.BufferUsageQueryResolve | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		set.Release()
		return nil, err
	}
	readback, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Timestamp Readback",
		Size:  8,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		set.Release()
		resolve.Release()
		return nil, err
	}
	q := &wgpuQuery{set: set, resolve: resolve, readback: readback}
	b.queries.all = append(b.queries.all, q)
	return q, nil
}

func (b *wgpuRendererBackendImpl) CreateDisjointQuery() (Query, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.timestamps {
		return nil, ErrTimestampsUnsupported
	}
	q := &wgpuQuery{disjoint: true}
	b.queries.all = append(b.queries.all, q)
	return q, nil
}

func (b *wgpuRendererBackendImpl) BeginDisjoint(q Query) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wq, ok := q.(*wgpuQuery)
	if !ok || !wq.disjoint {
		return
	}
	wq.members = wq.members[:0]
	wq.closed = false
	b.queries.open = wq
}

func (b *wgpuRendererBackendImpl) EndDisjoint(q Query) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wq, ok := q.(*wgpuQuery)
	if !ok || !wq.disjoint {
		return
	}
	wq.closed = true
	if b.queries.open == wq {
		b.queries.open = nil
	}
}

func (b *wgpuRendererBackendImpl) WriteTimestamp(q Query) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wq, ok := q.(*wgpuQuery)
	if !ok || wq.disjoint || wq.released || b.encoder == nil {
		return
	}
	switch wq.status {
	case queryMapped:
		wq.readback.Unmap()
	case queryMapping, queryRecorded:
		log.Printf("[Renderer] timestamp query reused before its readback completed")
		wq.status = queryFailed
		if b.queries.open != nil {
			b.queries.open.members = append(b.queries.open.members, wq)
		}
		return
	}

	b.endPass()
	b.encoder.WriteTimestamp(wq.set, 0)
	b.encoder.ResolveQuerySet(wq.set, 0, 1, wq.resolve, 0)
	b.encoder.CopyBufferToBuffer(wq.resolve, 0, wq.readback, 0, 8)
	wq.status = queryRecorded
	b.queries.recorded = append(b.queries.recorded, wq)
	if b.queries.open != nil {
		b.queries.open.members = append(b.queries.open.members, wq)
	}
}

func (b *wgpuRendererBackendImpl) TimestampData(q Query) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wq, ok := q.(*wgpuQuery)
	if !ok || wq.disjoint {
		return 0, false
	}
	if wq.status == queryMapping {
		b.device.Poll(false, nil)
	}
	switch wq.status {
	case queryMapped:
		data := wq.readback.GetMappedRange(0, 8)
		wq.value = binary.LittleEndian.Uint64(data)
		wq.readback.Unmap()
		wq.status = queryReady
		return wq.value, true
	case queryReady:
		return wq.value, true
	}
	return 0, false
}

func (b *wgpuRendererBackendImpl) DisjointData(q Query) (DisjointData, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wq, ok := q.(*wgpuQuery)
	if !ok || !wq.disjoint || !wq.closed {
		return DisjointData{}, false
	}
	b.device.Poll(false, nil)

	result := DisjointData{Frequency: wgpuTimestampFrequency}
	for _, m := range wq.members {
		switch m.status {
		case queryRecorded, queryMapping:
			return DisjointData{}, false
		case queryFailed, queryIdle:
			result.Disjoint = true
		}
	}
	return result, true
}

package preview

import "sync"

// Decoder produces a preview result for one upload. Swappable for testing.
type Decoder func(kind Kind, data []byte, contentType string) Result

// Renderer owns the "current preview" slot for one upload session. Each
// Render call supersedes the previous one: a generation counter is taken
// before the decode starts and checked again before the result is committed,
// so a slow decode for an earlier file can never overwrite the preview of a
// later one. A superseded decode still runs to completion; only its result is
// dropped.
type Renderer struct {
	mu      sync.Mutex
	gen     uint64
	current Result
	decode  Decoder
}

// NewRenderer creates a Renderer using the real decoders
func NewRenderer() *Renderer {
	return NewRendererWithDecoder(decode)
}

// NewRendererWithDecoder creates a Renderer with a custom decoder for testing
func NewRendererWithDecoder(d Decoder) *Renderer {
	return &Renderer{
		decode:  d,
		current: Result{State: StatePending},
	}
}

// decode is the production Decoder
func decode(kind Kind, data []byte, contentType string) Result {
	switch kind {
	case KindDocument:
		return decodeDocument(data)
	case KindRaster:
		return decodeRaster(data, contentType)
	default:
		return Result{State: StatePending}
	}
}

// Render starts an asynchronous render for a new upload, superseding any
// render still in flight. The slot shows pending until the decode commits.
// Unsupported media types stay pending without a decode attempt.
func (r *Renderer) Render(data []byte, contentType string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.current = Result{State: StatePending}
	r.mu.Unlock()

	kind := KindOf(contentType)
	if kind == KindUnsupported {
		return
	}

	go func() {
		r.commit(gen, r.decode(kind, data, contentType))
	}()
}

// commit writes a decode result into the slot unless it has been superseded
func (r *Renderer) commit(gen uint64, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.current = result
}

// Current returns the preview currently occupying the slot
func (r *Renderer) Current() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

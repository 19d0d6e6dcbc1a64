package engine

// Provenance is a (source, confidence) pair applied to edges created
// while it is active.
type Provenance struct {
	Source     string
	Confidence float64
}

// PushContext activates default provenance for subsequently created
// edges. Contexts nest; the innermost frame wins. Explicit per-edge
// values always override the frame.
func (e *Engine) PushContext(source string, confidence float64) {
	e.provMu.Lock()
	defer e.provMu.Unlock()
	e.provenance = append(e.provenance, Provenance{Source: source, Confidence: confidence})
}

// PopContext deactivates the innermost provenance frame. Popping an
// empty stack is a no-op.
func (e *Engine) PopContext() {
	e.provMu.Lock()
	defer e.provMu.Unlock()
	if len(e.provenance) > 0 {
		e.provenance = e.provenance[:len(e.provenance)-1]
	}
}

// WithContext runs fn with provenance active, popping it on return.
func (e *Engine) WithContext(source string, confidence float64, fn func() error) error {
	e.PushContext(source, confidence)
	defer e.PopContext()
	return fn()
}

// resolveProvenance picks non-zero explicit values first, then the
// innermost frame, then the defaults "unknown" / 1.0.
func (e *Engine) resolveProvenance(source string, confidence *float64) (string, float64) {
	e.provMu.Lock()
	var frame *Provenance
	if len(e.provenance) > 0 {
		frame = &e.provenance[len(e.provenance)-1]
	}
	e.provMu.Unlock()

	resolvedSource := source
	if resolvedSource == "" {
		if frame != nil {
			resolvedSource = frame.Source
		} else {
			resolvedSource = "unknown"
		}
	}

	resolvedConfidence := 1.0
	if confidence != nil {
		resolvedConfidence = *confidence
	} else if frame != nil {
		resolvedConfidence = frame.Confidence
	}
	return resolvedSource, resolvedConfidence
}

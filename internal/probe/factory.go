package probe

// TracedPipeline bundles the three instrumented stages wired over one
// shared recorder. The stage fields are exposed so callers can arm fault
// injection on an individual stage's tracer.
type TracedPipeline struct {
	Exec  *TracedMultiplier
	Trans *TracedOffsetter
	Proc  *TracedScaler

	rec *Recorder
}

// NewTraced constructs the instrumented pipeline. If rec is nil a fresh
// empty recorder is created.
func NewTraced(cfg Config, rec *Recorder) *TracedPipeline {
	if rec == nil {
		rec = NewRecorder()
	}
	proc := NewTracedScaler(cfg.Scale, rec)
	trans := NewTracedOffsetter(cfg.Offset, proc, rec)
	exec := NewTracedMultiplier(cfg.Factor, trans, rec)
	return &TracedPipeline{Exec: exec, Trans: trans, Proc: proc, rec: rec}
}

// Recorder returns the pipeline's shared recorder.
func (p *TracedPipeline) Recorder() *Recorder {
	return p.rec
}

// Arm configures every stage's tracer with the same fault target. Only the
// stage whose label equals target will fault; on the others the target
// never matches and arming has no observable effect.
func (p *TracedPipeline) Arm(target string) {
	p.Exec.Tracer().SetFault(target)
	p.Trans.Tracer().SetFault(target)
	p.Proc.Tracer().SetFault(target)
}

// Disarm clears fault injection on every stage.
func (p *TracedPipeline) Disarm() {
	p.Exec.Tracer().ClearFault()
	p.Trans.Tracer().ClearFault()
	p.Proc.Tracer().ClearFault()
}

// NewPipeline selects between the instrumented and the plain pipeline at
// construction time and returns a handle polymorphic over the top-level
// capability.
//
// Instrumented: all three traced stages share rec (or a fresh recorder if
// rec is nil). Plain: no recorder is touched, no events are recorded even
// if rec was supplied.
func NewPipeline(cfg Config, instrumented bool, rec *Recorder) Executor {
	if instrumented {
		return NewTraced(cfg, rec).Exec
	}
	return &Multiplier{
		Factor: cfg.Factor,
		Next: &Offsetter{
			Offset: cfg.Offset,
			Next:   &Scaler{Scale: cfg.Scale},
		},
	}
}

// RunPipeline invokes exec and converts an injected fault panic into an
// error return. Non-fault panics propagate unchanged.
//
// This is the invocation boundary: the fault has already truncated the
// recorded trace by the time it is recovered here.
func RunPipeline(exec Executor, x int64) (result int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := AsFault(r)
			if !ok {
				panic(r)
			}
			err = fe
		}
	}()
	return exec.Execute(x), nil
}

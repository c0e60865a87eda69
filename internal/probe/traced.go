package probe

// Stage labels as they appear in recorded events and value keys.
// Labels are stable and unique per stage type so traces are unambiguous.
const (
	LabelExecute   = "Multiplier::Execute"
	LabelTransform = "Offsetter::Transform"
	LabelProcess   = "Scaler::Process"
)

// TracedScaler is the instrumented innermost stage.
type TracedScaler struct {
	scale  int64
	tracer *Tracer
}

// NewTracedScaler creates an instrumented Scaler recording into rec.
func NewTracedScaler(scale int64, rec *Recorder) *TracedScaler {
	return &TracedScaler{scale: scale, tracer: NewTracer(rec)}
}

// Tracer returns the stage's own tracer for fault configuration.
func (s *TracedScaler) Tracer() *Tracer {
	return s.tracer
}

// Process implements Processor.
func (s *TracedScaler) Process(x int64) int64 {
	return s.tracer.Invoke(LabelProcess, x, func(x int64) int64 {
		return x * s.scale
	})
}

// TracedOffsetter is the instrumented middle stage.
type TracedOffsetter struct {
	offset int64
	next   Processor
	tracer *Tracer
}

// NewTracedOffsetter creates an instrumented Offsetter delegating to next.
func NewTracedOffsetter(offset int64, next Processor, rec *Recorder) *TracedOffsetter {
	return &TracedOffsetter{offset: offset, next: next, tracer: NewTracer(rec)}
}

// Tracer returns the stage's own tracer for fault configuration.
func (o *TracedOffsetter) Tracer() *Tracer {
	return o.tracer
}

// Transform implements Transformer.
func (o *TracedOffsetter) Transform(x int64) int64 {
	return o.tracer.Invoke(LabelTransform, x, func(x int64) int64 {
		return o.next.Process(x) + o.offset
	})
}

// TracedMultiplier is the instrumented outer stage.
type TracedMultiplier struct {
	factor int64
	next   Transformer
	tracer *Tracer
}

// NewTracedMultiplier creates an instrumented Multiplier delegating to next.
func NewTracedMultiplier(factor int64, next Transformer, rec *Recorder) *TracedMultiplier {
	return &TracedMultiplier{factor: factor, next: next, tracer: NewTracer(rec)}
}

// Tracer returns the stage's own tracer for fault configuration.
func (m *TracedMultiplier) Tracer() *Tracer {
	return m.tracer
}

// Execute implements Executor.
func (m *TracedMultiplier) Execute(x int64) int64 {
	return m.tracer.Invoke(LabelExecute, x, func(x int64) int64 {
		return m.next.Transform(x) * m.factor
	})
}

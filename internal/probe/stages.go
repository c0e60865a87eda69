package probe

// Executor is the top-level pipeline capability.
type Executor interface {
	// Execute maps an integer input to the pipeline result.
	Execute(x int64) int64
}

// Transformer is the middle pipeline capability.
type Transformer interface {
	Transform(x int64) int64
}

// Processor is the innermost pipeline capability.
type Processor interface {
	Process(x int64) int64
}

// Config holds the arithmetic parameters of the pipeline stages.
// The zero value is not useful; use DefaultConfig.
type Config struct {
	// Factor multiplies the transformed value in the outer stage.
	Factor int64
	// Offset is added to the processed value in the middle stage.
	Offset int64
	// Scale multiplies the raw input in the inner stage.
	Scale int64
}

// DefaultConfig returns the canonical pipeline parameters:
// result = ((x*2)+1)*3.
func DefaultConfig() Config {
	return Config{Factor: 3, Offset: 1, Scale: 2}
}

// Scaler is the plain innermost stage: Process(x) = x * Scale.
type Scaler struct {
	Scale int64
}

// Process implements Processor.
func (s *Scaler) Process(x int64) int64 {
	return x * s.Scale
}

// Offsetter is the plain middle stage: Transform(x) = Process(x) + Offset.
type Offsetter struct {
	Offset int64
	Next   Processor
}

// Transform implements Transformer.
func (o *Offsetter) Transform(x int64) int64 {
	return o.Next.Process(x) + o.Offset
}

// Multiplier is the plain outer stage: Execute(x) = Transform(x) * Factor.
type Multiplier struct {
	Factor int64
	Next   Transformer
}

// Execute implements Executor.
func (m *Multiplier) Execute(x int64) int64 {
	return m.Next.Transform(x) * m.Factor
}

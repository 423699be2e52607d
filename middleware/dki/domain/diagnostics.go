package domain

// Step identifica o ponto de decisão que gerou um diagnóstico.
type Step string

const (
	StepResolve  Step = "resolve"
	StepRewrite  Step = "rewrite"
	StepSync     Step = "sync"
	StepFinished Step = "finished"
)

// Diagnostic é emitido em cada ponto de decisão de uma execução.
type Diagnostic struct {
	Step        Step
	Reason      Reason
	RequestedID string
	City        string
	Count       int
	Err         error
}

// DiagnosticSink recebe diagnósticos. É opcional e nunca afeta o resultado.
type DiagnosticSink interface {
	Observe(Diagnostic)
}

// SinkFunc adapta uma função para DiagnosticSink.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Observe(d Diagnostic) { f(d) }

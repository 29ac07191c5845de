package pipeline

import (
	"log/slog"
	"sync"
)

// Progress messages shown while a search runs.
const (
	MessageCrafting     = "Criando recomendações sob medida..."
	MessageRefining     = "Refinando sua busca..."
	MessageEnriching    = "Gerando imagens e relatórios de vizinhança..."
	MessageAlternatives = "Buscando algumas opções criativas..."
	MessageFinalizing   = "Finalizando os detalhes extras..."
)

// ProgressSink receives human-readable status updates. Reports are
// fire-and-forget: nothing the sink does changes the search outcome.
type ProgressSink interface {
	Report(message string)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(message string)

// Report implements ProgressSink
func (f ProgressFunc) Report(message string) {
	f(message)
}

// ProgressRecorder keeps every reported message. Safe for concurrent use.
type ProgressRecorder struct {
	mu       sync.Mutex
	messages []string
}

// Report implements ProgressSink
func (r *ProgressRecorder) Report(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of the recorded messages in report order
func (r *ProgressRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.messages...)
}

// MultiSink fans a report out to every non-nil sink
func MultiSink(sinks ...ProgressSink) ProgressSink {
	kept := make([]ProgressSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return ProgressFunc(func(message string) {
		for _, s := range kept {
			report(nil, s, message)
		}
	})
}

// report delivers message to sink. A nil sink is ignored and a panicking sink
// is logged and otherwise ignored.
func report(log *slog.Logger, sink ProgressSink, message string) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if log == nil {
				log = slog.Default()
			}
			log.Warn("progress sink panicked", "message", message, "panic", r)
		}
	}()
	sink.Report(message)
}

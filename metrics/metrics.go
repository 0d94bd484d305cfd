package metrics

import (
	"sync"

	"campus-canteen/services"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts store events and open sessions. It implements services.Observer.
type Recorder struct {
	Registry *prometheus.Registry

	events   *prometheus.CounterVec
	sessions prometheus.Gauge

	mu     sync.Mutex
	unsubs map[*services.Session]func()
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canteen",
			Name:      "store_events_total",
			Help:      "Cart and favorites mutations by kind.",
		}, []string{"kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "canteen",
			Name:      "open_sessions",
			Help:      "Sessions currently holding a cart.",
		}),
		unsubs: make(map[*services.Session]func()),
	}
	r.Registry.MustRegister(r.events, r.sessions)
	return r
}

func (r *Recorder) SessionOpened(s *services.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.unsubs[s]; ok {
		return
	}
	r.unsubs[s] = s.Store.Subscribe(func(e services.Event) {
		r.events.WithLabelValues(string(e.Kind)).Inc()
	})
	r.sessions.Inc()
}

func (r *Recorder) SessionClosed(s *services.Session) {
	r.mu.Lock()
	unsub, ok := r.unsubs[s]
	delete(r.unsubs, s)
	r.mu.Unlock()
	if ok {
		unsub()
		r.sessions.Dec()
	}
}

// Package writer выполняет запись блобов состояния в фоне.
//
// Держатели состояния меняют данные в памяти синхронно и передают
// сериализованный снимок в Writer. Снимки одного ключа схлопываются:
// записывается только последний. Ошибки записи логируются и не
// возвращаются вызывающему.
package writer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/metrics"
)

// Store — хранилище блобов.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
}

// Writer — фоновый писатель снимков состояния.
type Writer struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string][]byte
	order   []string
	closed  bool

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// New создаёт Writer и запускает его горутину.
func New(store Store, log *slog.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &Writer{
		store:   store,
		log:     log,
		timeout: timeout,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Save сериализует v и ставит снимок в очередь на запись под ключом key.
// После Close запись выполняется синхронно.
func (w *Writer) Save(key string, v any) {
	const op = "writer.Save"

	data, err := json.Marshal(v)
	if err != nil {
		w.log.Error("failed to marshal state", sl.Op(op), slog.String("key", key), sl.Err(err))
		metrics.PersistFailures.WithLabelValues(key).Inc()
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.write(key, data)
		return
	}
	if _, ok := w.pending[key]; !ok {
		w.order = append(w.order, key)
	}
	w.pending[key] = data
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush дожидается записи всех снимков, поставленных до вызова.
func (w *Writer) Flush() {
	ack := make(chan struct{})
	select {
	case w.flush <- ack:
		<-ack
	case <-w.done:
	}
}

// Close записывает оставшиеся снимки и останавливает горутину.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case ack := <-w.flush:
			w.drain()
			close(ack)
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		data := w.pending[key]
		delete(w.pending, key)
		w.mu.Unlock()

		w.write(key, data)
	}
}

func (w *Writer) write(key string, data []byte) {
	const op = "writer.write"

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.store.Put(ctx, key, data); err != nil {
		w.log.Error("failed to persist state", sl.Op(op), slog.String("key", key), sl.Err(err))
		metrics.PersistFailures.WithLabelValues(key).Inc()
		return
	}
	w.log.Debug("state persisted", sl.Op(op), slog.String("key", key))
}

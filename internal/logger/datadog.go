package logger

import (
	"context"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

const (
	dataDogSource        = "go"
	dataDogBatchSize     = 50
	dataDogFlushInterval = 2 * time.Second
	dataDogDefaultBuffer = 512
	dataDogDefaultWait   = 5 * time.Second
)

// logSubmitter is the part of datadogV2.LogsApi used by the writer.
type logSubmitter interface {
	SubmitLog(
		ctx context.Context,
		body []datadogV2.HTTPLogItem,
		o ...datadogV2.SubmitLogOptionalParameters,
	) (interface{}, *http.Response, error)
}

// DataDogWriter ships every zerolog line to the datadog log intake.
// Writes never block: lines are queued and sent in batches by a background goroutine.
// When the queue is full new lines are dropped and counted.
type DataDogWriter struct {
	api      logSubmitter
	ctx      context.Context
	cfg      DataDog
	hostname string
	queue    chan []byte
	done     chan struct{}
	once     sync.Once
	dropped  atomic.Uint64
}

// NewDataDogWriter creates a writer using the datadog v2 logs api.
func NewDataDogWriter(cfg DataDog) (*DataDogWriter, error) {
	if cfg.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	ctx := context.WithValue(
		context.Background(),
		datadog.ContextAPIKeys,
		map[string]datadog.APIKey{"apiKeyAuth": {Key: cfg.APIKey}},
	)

	if cfg.Site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{"site": cfg.Site})
	}

	api := datadogV2.NewLogsApi(datadog.NewAPIClient(datadog.NewConfiguration()))

	return newDataDogWriter(ctx, cfg, api), nil
}

func newDataDogWriter(ctx context.Context, cfg DataDog, api logSubmitter) *DataDogWriter {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = dataDogDefaultBuffer
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = dataDogDefaultWait
	}

	hostname := cfg.Hostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	w := &DataDogWriter{
		api:      api,
		ctx:      ctx,
		cfg:      cfg,
		hostname: hostname,
		queue:    make(chan []byte, cfg.BufferSize),
		done:     make(chan struct{}),
	}

	go w.run()

	return w
}

// Write queues one log line. It always reports success to zerolog.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	select {
	case w.queue <- line:
	default:
		w.dropped.Add(1)
	}

	return len(p), nil
}

// Dropped returns how many lines were discarded because the queue was full.
func (w *DataDogWriter) Dropped() uint64 {
	return w.dropped.Load()
}

// Close flushes the queue and stops the background sender.
func (w *DataDogWriter) Close() error {
	w.once.Do(func() {
		close(w.queue)
		<-w.done
	})

	return nil
}

func (w *DataDogWriter) run() {
	defer close(w.done)

	ticker := time.NewTicker(dataDogFlushInterval)
	defer ticker.Stop()

	batch := make([]datadogV2.HTTPLogItem, 0, dataDogBatchSize)

	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flush(batch)
				return
			}

			batch = append(batch, w.item(line))
			if len(batch) >= dataDogBatchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (w *DataDogWriter) item(line []byte) datadogV2.HTTPLogItem {
	item := datadogV2.HTTPLogItem{
		Ddsource: datadog.PtrString(dataDogSource),
		Hostname: datadog.PtrString(w.hostname),
		Message:  string(line),
		Service:  datadog.PtrString(w.cfg.ServiceName),
	}

	if w.cfg.Tags != "" {
		item.Ddtags = datadog.PtrString(w.cfg.Tags)
	}

	return item
}

func (w *DataDogWriter) flush(batch []datadogV2.HTTPLogItem) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.cfg.Timeout)
	defer cancel()

	// the slice is reused by the caller after flush returns
	items := make([]datadogV2.HTTPLogItem, len(batch))
	copy(items, batch)

	if _, _, err := w.api.SubmitLog(ctx, items, *datadogV2.NewSubmitLogOptionalParameters()); err != nil {
		// can not log through zerolog here, it would feed back into this writer
		ErrorHandler(err)
	}
}

package logger

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	items []datadogV2.HTTPLogItem
	err   error
}

func (f *fakeSubmitter) SubmitLog(
	_ context.Context,
	body []datadogV2.HTTPLogItem,
	_ ...datadogV2.SubmitLogOptionalParameters,
) (interface{}, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, body...)

	return nil, nil, f.err
}

func (f *fakeSubmitter) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item.Message)
	}

	return out
}

func TestNewDataDogWriterRequiresAPIKey(t *testing.T) {
	_, err := NewDataDogWriter(DataDog{Enabled: true})
	require.ErrorIs(t, err, ErrDataDogAPIKeyIsEmpty)
}

func TestDataDogWriterFlushesOnClose(t *testing.T) {
	api := &fakeSubmitter{}
	w := newDataDogWriter(context.Background(), DataDog{ServiceName: "api", Hostname: "host-1", Tags: "env:test"}, api)

	for _, line := range []string{`{"level":"info"}`, `{"level":"error"}`} {
		n, err := w.Write([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, len(line), n)
	}

	require.NoError(t, w.Close())
	// closing twice is allowed
	require.NoError(t, w.Close())

	assert.Equal(t, []string{`{"level":"info"}`, `{"level":"error"}`}, api.messages())

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.items, 2)
	assert.Equal(t, "api", api.items[0].GetService())
	assert.Equal(t, "host-1", api.items[0].GetHostname())
	assert.Equal(t, "env:test", api.items[0].GetDdtags())
}

func TestDataDogWriterSubmitErrorDoesNotPanic(t *testing.T) {
	api := &fakeSubmitter{err: errors.New("intake down")}
	w := newDataDogWriter(context.Background(), DataDog{ServiceName: "api"}, api)

	_, err := w.Write([]byte("line"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Len(t, api.messages(), 1)
}

func TestDataDogWriterBatchesLargeVolumes(t *testing.T) {
	api := &fakeSubmitter{}
	w := newDataDogWriter(context.Background(), DataDog{ServiceName: "api", BufferSize: 1000}, api)

	for range dataDogBatchSize*2 + 3 {
		_, _ = w.Write([]byte("x"))
	}

	require.NoError(t, w.Close())
	assert.Len(t, api.messages(), dataDogBatchSize*2+3)
	assert.Zero(t, w.Dropped())
}

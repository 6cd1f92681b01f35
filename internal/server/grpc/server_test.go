package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/conversion"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeTracker struct {
	mu        sync.Mutex
	stats     conversion.Stats
	tasks     []models.ConversionTask
	zip       *models.PrepackagedZip
	listeners []func(conversion.Event)
}

func (f *fakeTracker) Stats() conversion.Stats            { return f.stats }
func (f *fakeTracker) AllTasks() []models.ConversionTask { return f.tasks }
func (f *fakeTracker) PrepackagedZip() (*models.PrepackagedZip, bool) {
	return f.zip, f.zip != nil
}

func (f *fakeTracker) Subscribe(fn func(conversion.Event)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners = nil
	}, nil
}

func (f *fakeTracker) subscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeTracker) publish(e conversion.Event) {
	f.mu.Lock()
	ls := append([]func(conversion.Event){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range ls {
		fn(e)
	}
}

type fakeSaver struct {
	err   error
	saved []string
}

func (f *fakeSaver) DownloadFile(_ context.Context, blob *models.Blob, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, filename)
	return "/out/" + filename, nil
}

func dial(t *testing.T, tr Tracker, sv Saver) *StatusClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", nil, tr, sv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return NewStatusClient(conn)
}

func TestGetStats(t *testing.T) {
	tr := &fakeTracker{stats: conversion.Stats{Total: 3, Completed: 2, Failed: 1}}
	c := dial(t, tr, &fakeSaver{})

	got, err := c.GetStats(context.Background())
	require.NoError(t, err)
	m := got.AsMap()
	assert.EqualValues(t, 3, m["total"])
	assert.EqualValues(t, 2, m["completed"])
	assert.EqualValues(t, 1, m["failed"])
	assert.Equal(t, false, m["zip_ready"])

	tr.zip = &models.PrepackagedZip{Info: models.ZipInfo{Filename: "x.zip", FileCount: 2, Size: 10, Format: models.FormatPNG}}
	got, err = c.GetStats(context.Background())
	require.NoError(t, err)
	m = got.AsMap()
	assert.Equal(t, true, m["zip_ready"])
	assert.Equal(t, "x.zip", m["zip"].(map[string]any)["filename"])
}

func TestListTasks(t *testing.T) {
	tr := &fakeTracker{tasks: []models.ConversionTask{
		{
			ID: "1", Status: models.StatusCompleted, Progress: 100, TargetFormat: models.FormatJPEG,
			File:   &models.File{Name: "a.avif"},
			Result: &models.ConversionResult{Filename: "a.jpg", Size: 42},
		},
		{ID: "2", Status: models.StatusFailed, TargetFormat: models.FormatJPEG, Error: "boom"},
	}}
	c := dial(t, tr, &fakeSaver{})

	got, err := c.ListTasks(context.Background())
	require.NoError(t, err)

	tasks := got.AsMap()["tasks"].([]any)
	require.Len(t, tasks, 2)
	first := tasks[0].(map[string]any)
	assert.Equal(t, "completed", first["status"])
	assert.Equal(t, "a.avif", first["source"])
	assert.Equal(t, "a.jpg", first["filename"])
	assert.EqualValues(t, 42, first["size"])
	assert.Equal(t, "boom", tasks[1].(map[string]any)["error"])
}

func TestSaveArchive(t *testing.T) {
	tr := &fakeTracker{}
	sv := &fakeSaver{}
	c := dial(t, tr, sv)

	_, err := c.SaveArchive(context.Background())
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	tr.zip = &models.PrepackagedZip{Blob: models.NewBlob([]byte("zip"), "application/zip"), Info: models.ZipInfo{Filename: "all.zip", FileCount: 1}}
	got, err := c.SaveArchive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/out/all.zip", got.AsMap()["path"])
	assert.Equal(t, []string{"all.zip"}, sv.saved)

	sv.err = errors.New("disk full")
	_, err = c.SaveArchive(context.Background())
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestWatch(t *testing.T) {
	tr := &fakeTracker{}
	c := dial(t, tr, &fakeSaver{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.Watch(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return tr.subscribed() == 1 }, 2*time.Second, 10*time.Millisecond)

	tr.publish(conversion.Event{Name: conversion.EventBatchStarted, Batch: &conversion.BatchSummary{Total: 2, Format: models.FormatJPEG}})
	tr.publish(conversion.Event{Name: conversion.EventPrepackagingProgress, Packing: &conversion.Packing{Stage: conversion.StagePacking, Progress: 81}})

	msg, err := stream.Recv()
	require.NoError(t, err)
	m := msg.AsMap()
	assert.Equal(t, "batchStarted", m["name"])
	assert.EqualValues(t, 2, m["batch"].(map[string]any)["total"])

	msg, err = stream.Recv()
	require.NoError(t, err)
	assert.EqualValues(t, 81, msg.AsMap()["packing"].(map[string]any)["progress"])

	cancel()
	require.Eventually(t, func() bool { return tr.subscribed() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", nil, &fakeTracker{}, &fakeSaver{})
	assert.Error(t, srv.Run(context.Background()))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:0", nil, &fakeTracker{}, &fakeSaver{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

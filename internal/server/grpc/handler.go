package grpc

import (
	"context"

	"github.com/dmitrijs2005/avifconv/internal/conversion"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func (s *GRPCServer) GetStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.tracker.Stats()
	m := map[string]any{
		"total":      st.Total,
		"processing": st.Processing,
		"completed":  st.Completed,
		"failed":     st.Failed,
		"zip_ready":  false,
	}
	if z, ok := s.tracker.PrepackagedZip(); ok {
		m["zip_ready"] = true
		m["zip"] = zipInfo(z.Info)
	}
	return toStruct(m)
}

func (s *GRPCServer) ListTasks(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	tasks := s.tracker.AllTasks()
	list := make([]any, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, taskInfo(t))
	}
	return toStruct(map[string]any{"tasks": list})
}

// SaveArchive writes the prepackaged archive into the output directory.
func (s *GRPCServer) SaveArchive(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	z, ok := s.tracker.PrepackagedZip()
	if !ok {
		return nil, status.Error(codes.FailedPrecondition, "no prepackaged archive")
	}

	path, err := s.saver.DownloadFile(ctx, z.Blob, z.Info.Filename)
	if err != nil {
		s.logger.Error(ctx, "saving archive failed", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	m := zipInfo(z.Info)
	m["path"] = path
	return toStruct(m)
}

// Watch streams conversion events until the client goes away. Events are
// dropped when the client falls behind by more than watchBuffer.
func (s *GRPCServer) Watch(_ *emptypb.Empty, stream WatchServer) error {
	ctx := stream.Context()
	events := make(chan conversion.Event, s.watchBuffer)

	unsubscribe, err := s.tracker.Subscribe(func(e conversion.Event) {
		select {
		case events <- e:
		default:
			s.logger.Warn(ctx, "watch client too slow, event dropped", "event", string(e.Name))
		}
	})
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			msg, err := toStruct(eventInfo(e))
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func zipInfo(z models.ZipInfo) map[string]any {
	return map[string]any{
		"filename":   z.Filename,
		"file_count": z.FileCount,
		"size":       z.Size,
		"format":     string(z.Format),
		"created_at": z.CreatedAt.UTC().Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func taskInfo(t models.ConversionTask) map[string]any {
	m := map[string]any{
		"id":            t.ID,
		"status":        string(t.Status),
		"progress":      t.Progress,
		"target_format": string(t.TargetFormat),
		"start_time":    t.StartTime.UTC().Format(timeLayout),
	}
	if t.File != nil {
		m["source"] = t.File.Name
	}
	if t.Result != nil {
		m["filename"] = t.Result.Filename
		m["size"] = t.Result.Size
	}
	if t.Error != "" {
		m["error"] = t.Error
	}
	return m
}

func eventInfo(e conversion.Event) map[string]any {
	m := map[string]any{"name": string(e.Name)}
	if e.Task != nil {
		m["task"] = taskInfo(*e.Task)
	}
	if e.Tasks != nil {
		m["cleared"] = len(e.Tasks)
	}
	if b := e.Batch; b != nil {
		m["batch"] = map[string]any{
			"total":      b.Total,
			"successful": b.Successful,
			"failed":     b.Failed,
			"format":     string(b.Format),
		}
	}
	if p := e.Packing; p != nil {
		pm := map[string]any{
			"format":   string(p.Format),
			"stage":    string(p.Stage),
			"progress": p.Progress,
		}
		if p.Info != nil {
			pm["zip"] = zipInfo(*p.Info)
		}
		if p.Error != "" {
			pm["error"] = p.Error
		}
		m["packing"] = pm
	}
	return m
}

// Package grpc serves avifconv.StatusService: statistics, task listings, the
// prepackaged archive and a live event stream of the watch daemon.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/avifconv/internal/conversion"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"google.golang.org/grpc"
)

// Tracker is the part of the conversion manager the service reads.
type Tracker interface {
	Stats() conversion.Stats
	AllTasks() []models.ConversionTask
	PrepackagedZip() (*models.PrepackagedZip, bool)
	Subscribe(fn func(conversion.Event)) (func(), error)
}

// Saver writes a blob into the daemon's output directory.
type Saver interface {
	DownloadFile(ctx context.Context, blob *models.Blob, filename string) (string, error)
}

type GRPCServer struct {
	address string
	tracker Tracker
	saver   Saver
	logger  logging.Logger

	// watchBuffer bounds the events queued per Watch stream.
	watchBuffer int
}

func NewGRPCServer(a string, l logging.Logger, t Tracker, s Saver) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      logging.OrNop(l).With("module", "grpc_server"),
		tracker:     t,
		saver:       s,
		watchBuffer: 64,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor),
		grpc.ChainStreamInterceptor(s.streamLoggingInterceptor),
	)
	RegisterStatusServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

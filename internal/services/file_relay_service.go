package services

import (
	"context"
	"fmt"
	"time"

	"tasks-edge-api/internal/adapters/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// fileRelayService implements the FileRelayService interface
type fileRelayService struct {
	host   storage.FileHost
	logger *logrus.Logger
}

// NewFileRelayService creates a new file relay service instance
func NewFileRelayService(host storage.FileHost, logger *logrus.Logger) FileRelayService {
	if logger == nil {
		logger = logrus.New()
	}
	return &fileRelayService{host: host, logger: logger}
}

// Relay uploads data and resolves a download link for every rendition the
// host kept. Links are resolved concurrently and returned in host order.
func (s *fileRelayService) Relay(ctx context.Context, data []byte) (*RelayResult, error) {
	start := time.Now()

	uploaded, err := s.host.Upload(ctx, data, nil)
	if err != nil {
		return nil, err
	}
	if len(uploaded.FileIDs) == 0 {
		return nil, fmt.Errorf("file host kept no renditions")
	}

	links := make([]string, len(uploaded.FileIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range uploaded.FileIDs {
		i, id := i, id
		g.Go(func() error {
			link, err := s.host.ResolveURL(gctx, id)
			if err != nil {
				return err
			}
			links[i] = link
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":  uploaded.PrimaryID(),
		"links":    len(links),
		"duration": time.Since(start),
	}).Info("File relayed")

	return &RelayResult{
		FileID:   uploaded.PrimaryID(),
		ImageURL: links,
	}, nil
}

package server

import (
	"fmt"
	"net"
)

func (s *serverImpl) runGRPCServer(lis net.Listener, errChan chan<- error) {
	s.logger.Info("Starting gRPC server", "addr", lis.Addr().String())
	if err := s.grpcServer.Serve(lis); err != nil {
		errChan <- fmt.Errorf("grpc server error: %w", err)
	}
}

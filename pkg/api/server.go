package api

import (
	"context"
	"net/http"

	"gathering/pkg/services"

	"github.com/ServiceWeaver/weaver"
)

type server struct {
	weaver.Implements[weaver.Main]
	gathering weaver.Ref[services.Gathering]
	lis       weaver.Listener `weaver:"gathering"`
}

// Serve runs the JSON gateway on the "gathering" listener.
func Serve(ctx context.Context, s *server) error {
	handler := NewHandler(s.gathering.Get(), s.Logger(ctx), weaver.InstrumentHandlerFunc)
	s.Logger(ctx).Info("gathering-api available", "addr", s.lis)
	return http.Serve(s.lis, handler)
}

package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Publisher mirrors frames to a message bus.
type Publisher interface {
	Publish(data []byte) error
}

// Overlay is a presentation surface that serializes every call into a
// Frame for websocket clients and the optional publisher.
type Overlay struct {
	addr   string
	hub    *Hub
	pub    Publisher
	logger *zap.Logger
	srv    *http.Server
}

// New creates an Overlay serving websocket clients on addr at /ws.
// pub may be nil.
func New(addr string, pub Publisher, logger *zap.Logger) *Overlay {
	o := &Overlay{addr: addr, hub: NewHub(logger), pub: pub, logger: logger}
	mux := http.NewServeMux()
	mux.Handle("/ws", o.hub)
	o.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return o
}

// Hub returns the websocket hub.
func (o *Overlay) Hub() *Hub { return o.hub }

// Start listens on the configured address and serves until Stop or ctx ends.
func (o *Overlay) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", o.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", o.addr, err)
	}
	return o.Serve(ctx, lis)
}

// Serve serves on lis until Stop or ctx ends.
func (o *Overlay) Serve(ctx context.Context, lis net.Listener) error {
	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go o.hub.Run(hubCtx)
	go func() {
		<-hubCtx.Done()
		o.Stop()
	}()
	o.logger.Info("overlay listening", zap.String("addr", lis.Addr().String()))
	if err := o.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving overlay: %w", err)
	}
	return nil
}

// Stop closes the listener and every client connection.
func (o *Overlay) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.srv.Shutdown(ctx); err != nil {
		o.logger.Warn("overlay shutdown", zap.Error(err))
	}
}

func (o *Overlay) emit(f Frame) []byte {
	data, err := json.Marshal(f)
	if err != nil {
		o.logger.Error("marshalling overlay frame", zap.String("kind", f.Kind), zap.Error(err))
		return nil
	}
	o.hub.Broadcast(data)
	if o.pub != nil {
		if err := o.pub.Publish(data); err != nil {
			o.logger.Warn("publishing overlay frame", zap.String("kind", f.Kind), zap.Error(err))
		}
	}
	return data
}

func (o *Overlay) RenderRoster(lines []roster.Line) {
	if data := o.emit(rosterFrame(lines)); data != nil {
		o.hub.rememberRoster(data)
	}
}

func (o *Overlay) AppendLine(l presentation.Line) { o.emit(lineFrame(l)) }
func (o *Overlay) EnableInput()                   { o.emit(inputFrame(true)) }
func (o *Overlay) DisableInput()                  { o.emit(inputFrame(false)) }

package pubsub

import (
	"cmp"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
)

// EmbeddedNATSPubSub runs a NATS server in-process for development, so the
// JetStream path is exercised without external infrastructure
type EmbeddedNATSPubSub struct {
	stream
	server *server.Server
}

// EmbeddedNATSOptions configures the embedded NATS server
type EmbeddedNATSOptions struct {
	Port       int // 0 or -1 picks a random free port
	Subject    string
	StreamName string
	StoreDir   string // empty keeps JetStream in memory
}

const startTimeout = 10 * time.Second

// DefaultEmbeddedNATSOptions returns the development defaults
func DefaultEmbeddedNATSOptions() EmbeddedNATSOptions {
	return EmbeddedNATSOptions{
		Port:       -1,
		Subject:    "matchup.events",
		StreamName: DefaultStreamName,
	}
}

// NewEmbeddedNATSPubSub starts the server and connects to it
func NewEmbeddedNATSPubSub(opts EmbeddedNATSOptions) (*EmbeddedNATSPubSub, error) {
	def := DefaultEmbeddedNATSOptions()
	if opts.Port == 0 {
		opts.Port = def.Port
	}
	opts.Subject = cmp.Or(opts.Subject, def.Subject)
	opts.StreamName = cmp.Or(opts.StreamName, def.StreamName)

	ns, err := server.NewServer(&server.Options{
		ServerName: "fighter-matchup-dev",
		Host:       "127.0.0.1",
		Port:       opts.Port,
		JetStream:  true,
		StoreDir:   opts.StoreDir,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	ns.SetLogger(serverLog{logger.Logger.With("component", "nats-server")}, false, false)
	go ns.Start()

	if !ns.ReadyForConnections(startTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready after %s", startTimeout)
	}

	ps := &EmbeddedNATSPubSub{server: ns, stream: stream{subject: opts.Subject}}
	if err := ps.connect(opts); err != nil {
		ps.Close()
		return nil, err
	}
	logger.Info("Embedded NATS server started", "url", ns.ClientURL(), "stream", opts.StreamName, "subject", opts.Subject)
	return ps, nil
}

// connect attaches the JetStream stream to the running server. Events only
// need to outlive a dev session, so retention is short.
func (p *EmbeddedNATSPubSub) connect(opts EmbeddedNATSOptions) error {
	nc, err := nats.Connect(p.server.ClientURL(), nats.Name("fighter-matchup-embedded"))
	if err != nil {
		return fmt.Errorf("connect to embedded NATS: %w", err)
	}
	p.nc = nc

	if p.js, err = nc.JetStream(); err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	storage := nats.MemoryStorage
	if opts.StoreDir != "" {
		storage = nats.FileStorage
	}
	if err := ensureStream(p.js, opts.StreamName, opts.Subject, storage, time.Hour); err != nil {
		return err
	}
	return p.listen()
}

// ServerURL returns the client URL of the embedded server
func (p *EmbeddedNATSPubSub) ServerURL() string {
	return p.server.ClientURL()
}

// Close shuts down the connection and the embedded server
func (p *EmbeddedNATSPubSub) Close() {
	p.close()
	if p.server != nil {
		p.server.Shutdown()
		p.server.WaitForShutdown()
		logger.Info("Embedded NATS server stopped")
	}
}

// serverLog adapts the NATS server logger interface to slog
type serverLog struct {
	l *slog.Logger
}

func (s serverLog) Noticef(format string, v ...any) { s.l.Info(fmt.Sprintf(format, v...)) }
func (s serverLog) Warnf(format string, v ...any)   { s.l.Warn(fmt.Sprintf(format, v...)) }
func (s serverLog) Errorf(format string, v ...any)  { s.l.Error(fmt.Sprintf(format, v...)) }
func (s serverLog) Fatalf(format string, v ...any) {
	s.l.Error(fmt.Sprintf(format, v...), "fatal", true)
}
func (s serverLog) Debugf(format string, v ...any) { s.l.Debug(fmt.Sprintf(format, v...)) }
func (s serverLog) Tracef(format string, v ...any) {
	s.l.Debug(fmt.Sprintf(format, v...), "trace", true)
}

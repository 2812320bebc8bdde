// Package server wires the subserver directors, shared registries, and
// backing store against a database connection and starts their tick
// loops. Grounded on the original's ServerInstance, which owns one
// thread per director and runs RunDirectorTaskLoop<T> against each;
// this port collapses that into one goroutine per director supervised
// by an errgroup, the idiom internal/otp.StartSweep already uses.
package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alicia-server/server/internal/chatcmd"
	"github.com/alicia-server/server/internal/chatsys"
	"github.com/alicia-server/server/internal/config"
	"github.com/alicia-server/server/internal/content"
	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/otp"
	"github.com/alicia-server/server/internal/persist"
	"github.com/alicia-server/server/internal/room"
)

// Instance owns everything a running subserver process needs: the
// database connection, the shared OTP/room registries, the static
// content registry, and whichever directors this process was asked to
// run (spec.md §2: "the four subservers may run as separate
// processes").
type Instance struct {
	cfg *config.Config
	log *zap.Logger
	db  *persist.DB

	OTP     *otp.Registry
	Rooms   *room.Registry
	Content *content.Registry
	Chat    *chatsys.System

	servers []*netpkg.Server
	runners []func(context.Context) error
}

// New connects to the database, runs migrations, and loads the static
// content registry. It does not start any director; call one of
// AddLobby/AddRanch/AddRace/AddAllChat/AddPrivateChat/AddMessenger to
// select which subserver(s) this process runs, then Run.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Instance, error) {
	db, err := persist.NewDB(ctx, cfg.Authentication.Postgres.ConnectionURI, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	contentReg, err := content.Load(cfg.Data.File.BasePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load content: %w", err)
	}

	otpReg := otp.New(cfg.Network.OtpExpiry, log)

	var cmdEngine *chatcmd.Engine
	cmdEngine, err = chatcmd.NewEngine(cfg.Data.File.BasePath+"/chatcmd", log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load chat commands: %w", err)
	}

	inst := &Instance{
		cfg:     cfg,
		log:     log,
		db:      db,
		OTP:     otpReg,
		Rooms:   room.NewRegistry(log),
		Content: contentReg,
		Chat:    chatsys.New(persist.NewInfractionRepo(db), cmdEngine),
	}
	inst.runners = append(inst.runners, otpReg.Run)
	return inst, nil
}

// Close releases the database connection. Call after Run returns.
func (i *Instance) Close() { i.db.Close() }

// addServer binds a TCP listener under the given scheme and registers
// it for AcceptLoop startup in Run.
func (i *Instance) addServer(listen config.Listen, scheme netpkg.Scheme) (*netpkg.Server, error) {
	srv, err := netpkg.NewServer(listen.BindAddr(), scheme, i.cfg.Network.InQueueSize, i.cfg.Network.OutQueueSize, i.log)
	if err != nil {
		return nil, err
	}
	i.servers = append(i.servers, srv)
	return srv, nil
}

// Run starts every registered director and the OTP sweep loop under a
// shared errgroup, blocking until ctx is cancelled or one of them
// returns an error (spec.md §5, mirroring ServerInstance::Initialize's
// one-thread-per-director startup).
func (i *Instance) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, run := range i.runners {
		run := run
		g.Go(func() error { return run(ctx) })
	}
	return g.Wait()
}

package server

import (
	"context"
	"fmt"

	"github.com/alicia-server/server/internal/chat"
	"github.com/alicia-server/server/internal/lobby"
	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/race"
	"github.com/alicia-server/server/internal/ranch"
)

// AddLobby binds the lobby's listener and registers its director.
func (i *Instance) AddLobby() error {
	if !i.cfg.Lobby.Enabled {
		return nil
	}
	srv, err := i.addServer(i.cfg.Lobby.Listen, netpkg.SchemeRolling)
	if err != nil {
		return fmt.Errorf("bind lobby: %w", err)
	}
	d := lobby.NewDirector(srv, i.OTP, i.Rooms, i.cfg, i.db, i.log)
	i.addRunner(srv, d.Run)
	return nil
}

// AddRanch binds the ranch's listener and registers its director.
func (i *Instance) AddRanch() error {
	if !i.cfg.Ranch.Enabled {
		return nil
	}
	srv, err := i.addServer(i.cfg.Ranch.Listen, netpkg.SchemeRolling)
	if err != nil {
		return fmt.Errorf("bind ranch: %w", err)
	}
	d := ranch.NewDirector(srv, i.OTP, i.Chat, i.cfg, i.db, i.log)
	i.addRunner(srv, d.Run)
	return nil
}

// AddRace binds the race's listener and registers its director.
func (i *Instance) AddRace() error {
	if !i.cfg.Race.Enabled {
		return nil
	}
	srv, err := i.addServer(i.cfg.Race.Listen, netpkg.SchemeRolling)
	if err != nil {
		return fmt.Errorf("bind race: %w", err)
	}
	d := race.NewDirector(srv, i.OTP, i.Rooms, i.cfg, i.db, i.log)
	i.addRunner(srv, d.Run)
	return nil
}

// AddAllChat binds the all-chat listener (fixed-key chat wire scheme)
// and registers its director.
func (i *Instance) AddAllChat() error {
	if !i.cfg.AllChat.Enabled {
		return nil
	}
	srv, err := i.addServer(i.cfg.AllChat.Listen, netpkg.SchemeChat)
	if err != nil {
		return fmt.Errorf("bind all-chat: %w", err)
	}
	d := chat.NewAllChatDirector(srv, i.OTP, i.Chat, i.cfg, i.db, i.log)
	i.addRunner(srv, d.Run)
	return nil
}

// AddPrivateChat binds the private-chat listener and registers its
// director.
func (i *Instance) AddPrivateChat() error {
	if !i.cfg.PrivateChat.Enabled {
		return nil
	}
	srv, err := i.addServer(i.cfg.PrivateChat.Listen, netpkg.SchemeChat)
	if err != nil {
		return fmt.Errorf("bind private-chat: %w", err)
	}
	d := chat.NewPrivateChatDirector(srv, i.Chat, i.cfg, i.db, i.log)
	i.addRunner(srv, d.Run)
	return nil
}

// AddMessenger binds the messenger listener and registers its
// director.
func (i *Instance) AddMessenger() error {
	if !i.cfg.Messenger.Enabled {
		return nil
	}
	srv, err := i.addServer(i.cfg.Messenger.Listen, netpkg.SchemeChat)
	if err != nil {
		return fmt.Errorf("bind messenger: %w", err)
	}
	d := chat.NewMessengerDirector(srv, i.OTP, i.cfg, i.db, i.log)
	i.addRunner(srv, d.Run)
	return nil
}

// addRunner starts srv's accept loop in the background and schedules
// run to be started under the Run errgroup.
func (i *Instance) addRunner(srv *netpkg.Server, run func(context.Context) error) {
	i.runners = append(i.runners, func(ctx context.Context) error {
		go srv.AcceptLoop()
		go func() {
			<-ctx.Done()
			srv.Shutdown()
		}()
		return run(ctx)
	})
}

package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/chidiya/broadcast"
	"github.com/wfunc/chidiya/config"
	"github.com/wfunc/chidiya/items"
	"github.com/wfunc/chidiya/logger"
	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/monitor"
	"github.com/wfunc/chidiya/network"
	"github.com/wfunc/chidiya/persistence"
	"github.com/wfunc/chidiya/room"
	chidiyarpc "github.com/wfunc/chidiya/rpc"
	"github.com/wfunc/chidiya/services"
	"github.com/wfunc/chidiya/session"
	"github.com/wfunc/chidiya/timer"
)

// heartbeatInterval is how often the server pings each connection; a client
// that stops ponging is read-timed-out within two intervals.
const heartbeatInterval = 30 * time.Second

// GameServer is the connection gateway: it maps live websocket connections
// to room memberships, forwards validated client events into room event
// queues, and carries room broadcasts back out. It owns no game state.
type GameServer struct {
	cfg       *config.Config
	upgrader  websocket.Upgrader
	registry  *room.Registry
	sessions  *session.Manager
	records   *services.RecordService
	monitor   *monitor.Monitor
	timers    *timer.Manager
	rpcServer *chidiyarpc.Server

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	s := &GameServer{
		cfg:          cfg,
		sessions:     session.NewManager(),
		records:      services.NewRecordService(db),
		monitor:      monitor.NewMonitor("chidiya"),
		timers:       timer.NewManager(),
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	opts := room.Options{
		Settings: models.RoomSettings{
			RoundMs:        cfg.Game.RoundMs,
			IntermissionMs: cfg.Game.IntermissionMs,
		},
		TickInterval:    time.Duration(cfg.Game.TickMs) * time.Millisecond,
		FirstRoundDelay: time.Duration(cfg.Game.FirstRoundDelayMs) * time.Millisecond,
		Bank:            items.DefaultBank(),
		Metrics:         s.monitor,
		Recorder:        s.records,
	}
	s.registry = room.NewRegistry(opts, time.Duration(cfg.Game.EmptyRoomTTLSec)*time.Second, s.timers)
	s.registry.SetBroadcaster(broadcast.NewRoomBroadcaster(s.registry, s.sessions))

	rpcServer, err := chidiyarpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(chidiyarpc.NewAdminService(s.registry, s.records))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MetricsAddress)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.registry.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessions.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		// disconnect is an ordinary leave, serialized through the room loop
		if code := sess.Room(); code != "" {
			s.registry.Leave(code, sess.GetID())
		}
		s.sessions.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			env, err := wsConn.ReadEvent()
			if err != nil {
				return
			}
			s.handleEvent(sess, env)
		}
	}
}

func (s *GameServer) handleEvent(sess *session.Session, env *network.Envelope) {
	start := time.Now()
	s.monitor.IncEventsReceived()
	defer func() {
		s.monitor.ObserveEventLatency(time.Since(start))
	}()

	switch env.Event {
	case network.EvtRoomCreate:
		s.handleCreate(sess, env.Data)
	case network.EvtRoomJoin:
		s.handleJoin(sess, env.Data)
	case network.EvtRoomLeave:
		s.handleLeave(sess)
	default:
		s.forwardToRoom(sess, env)
	}
}

func (s *GameServer) handleCreate(sess *session.Session, data json.RawMessage) {
	if sess.Room() != "" {
		s.sendError(sess, "you are already in a room")
		return
	}

	var req models.CreateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(sess, "invalid request")
		return
	}

	rm, player, err := s.registry.Create(sess, req.Name)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	sess.Name = player.Name
	sess.SetRoom(rm.Code())
}

func (s *GameServer) handleJoin(sess *session.Session, data json.RawMessage) {
	if sess.Room() != "" {
		s.sendError(sess, "you are already in a room")
		return
	}

	var req models.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(sess, "invalid request")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	rm, player, err := s.registry.Join(code, sess, req.Name)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	sess.Name = player.Name
	sess.SetRoom(rm.Code())
}

func (s *GameServer) handleLeave(sess *session.Session) {
	code := sess.Room()
	if code == "" {
		return
	}
	sess.SetRoom("")
	if err := s.registry.Leave(code, sess.GetID()); err != nil {
		logger.Log.Warnf("leave failed for session %s: %v", sess.GetID(), err)
	}
}

func (s *GameServer) forwardToRoom(sess *session.Session, env *network.Envelope) {
	code := sess.Room()
	if code == "" {
		s.sendError(sess, "you are not in a room")
		return
	}

	rm, ok := s.registry.Get(code)
	if !ok {
		sess.SetRoom("")
		s.sendError(sess, room.ErrRoomNotFound.Error())
		return
	}

	if err := rm.Do(sess.GetID(), env.Event, env.Data); err != nil {
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	if err := sess.Send(network.EvtRoomError, models.ErrorMessage{Message: message}); err != nil {
		logger.Log.Warnf("failed to send error to session %s: %v", sess.GetID(), err)
	}
}

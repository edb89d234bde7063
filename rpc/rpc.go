package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/chidiya/logger"
	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/room"
	"github.com/wfunc/chidiya/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the
// caller before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational queries over net/rpc: exported methods,
// exported argument types, pointer reply, error return.
type AdminService struct {
	registry *room.Registry
	records  *services.RecordService
}

func NewAdminService(registry *room.Registry, records *services.RecordService) *AdminService {
	return &AdminService{registry: registry, records: records}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.RoomInfo
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = a.registry.List()
	return nil
}

type GameStatsArgs struct{}

type GameStatsReply struct {
	Stats *models.GameStats
}

func (a *AdminService) GetGameStats(args *GameStatsArgs, reply *GameStatsReply) error {
	stats, err := a.records.Stats()
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Records []models.GameRecord
}

func (a *AdminService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	records, err := a.records.RecentGames(args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

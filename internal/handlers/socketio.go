package handlers

import (
	"sync"

	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

// ConnTable tracks live socket.io connections by id. It is the Emitter the
// router fans out through: a send to an id with no live connection is
// skipped, never reported.
type ConnTable struct {
	mu    sync.RWMutex
	conns map[string]socketio.Conn
}

func NewConnTable() *ConnTable {
	return &ConnTable{conns: make(map[string]socketio.Conn)}
}

func (t *ConnTable) Add(conn socketio.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[conn.ID()] = conn
}

func (t *ConnTable) Remove(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, connID)
}

// Emit implements Emitter.
func (t *ConnTable) Emit(connID, event string, data interface{}) {
	t.mu.RLock()
	conn, ok := t.conns[connID]
	t.mu.RUnlock()
	if !ok {
		return
	}
	conn.Emit(event, data)
}

// Handler binds the socket.io event surface to the router.
type Handler struct {
	router *Router
	table  *ConnTable
	logger *zap.Logger
}

func New(router *Router, table *ConnTable, logger *zap.Logger) *Handler {
	return &Handler{
		router: router,
		table:  table,
		logger: logger,
	}
}

// Bind registers the connection lifecycle and inbound event handlers.
func (h *Handler) Bind(server *socketio.Server) {
	server.OnConnect("/", func(conn socketio.Conn) error {
		conn.SetContext("")
		h.table.Add(conn)
		h.logger.Info("client connected", zap.String("conn_id", conn.ID()))
		return nil
	})

	server.OnDisconnect("/", func(conn socketio.Conn, reason string) {
		h.logger.Info("client disconnected",
			zap.String("conn_id", conn.ID()),
			zap.String("reason", reason))
		h.dispatch(conn.ID(), "disconnect", func() {
			h.router.HandleDisconnect(conn.ID())
		})
		h.table.Remove(conn.ID())
	})

	server.OnError("/", func(conn socketio.Conn, err error) {
		connID := ""
		if conn != nil {
			connID = conn.ID()
		}
		h.logger.Warn("socket error", zap.String("conn_id", connID), zap.Error(err))
	})

	server.OnEvent("/", "registerPlayer", h.on("registerPlayer", h.router.HandleRegisterPlayer))
	server.OnEvent("/", "createRoom", h.on("createRoom", h.router.HandleCreateRoom))
	server.OnEvent("/", "joinRoom", h.on("joinRoom", h.router.HandleJoinRoom))
	server.OnEvent("/", "startGame", h.on("startGame", h.router.HandleStartGame))

	server.OnEvent("/", "syncGameData", h.on("syncGameData", h.router.HandleSyncGameData))
	server.OnEvent("/", "battleStart", h.on("battleStart", h.router.HandleBattleStart))
	server.OnEvent("/", "battleAction", h.on("battleAction", h.router.HandleBattleAction))
	server.OnEvent("/", "battleEnd", h.on("battleEnd", h.router.HandleBattleEnd))

	server.OnEvent("/", "chatMessage", h.on("chatMessage", h.router.HandleChatMessage))

	server.OnEvent("/", "leaveRoom", func(conn socketio.Conn) {
		h.dispatch(conn.ID(), "leaveRoom", func() {
			h.router.HandleLeaveRoom(conn.ID())
		})
	})
}

func (h *Handler) on(event string, fn func(string, map[string]interface{})) func(socketio.Conn, map[string]interface{}) {
	return func(conn socketio.Conn, data map[string]interface{}) {
		if data == nil {
			data = map[string]interface{}{}
		}
		h.dispatch(conn.ID(), event, func() {
			fn(conn.ID(), data)
		})
	}
}

// dispatch runs one handler to completion, recovering panics so a fault in
// one event never stalls dispatch for other connections.
func (h *Handler) dispatch(connID, event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("event handler panic",
				zap.String("event", event),
				zap.String("conn_id", connID),
				zap.Any("panic", rec))
		}
	}()
	fn()
}

package webui

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/padworks/seqkontrol/src/configuration"
	"github.com/padworks/seqkontrol/src/mixer"
	"github.com/padworks/seqkontrol/src/sequencer"
)

//go:embed static
var staticFiles embed.FS

type WebUIServer struct {
	Addr          string
	upgrader      websocket.Upgrader
	mu            sync.Mutex
	clients       map[*websocket.Conn]string
	broadcast     chan []byte
	updateCh      chan []byte
	grid          *sequencer.Grid
	desk          *mixer.Desk
	configManager *configuration.ConfigManager
	stopChan      chan struct{}
}

func NewWebUIServer(addr string, grid *sequencer.Grid, desk *mixer.Desk, configManager *configuration.ConfigManager) *WebUIServer {
	return &WebUIServer{
		Addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all connections for now
			},
		},
		clients:       make(map[*websocket.Conn]string),
		broadcast:     make(chan []byte),
		updateCh:      make(chan []byte, 64),
		grid:          grid,
		desk:          desk,
		configManager: configManager,
		stopChan:      make(chan struct{}),
	}
}

func (s *WebUIServer) Start() error {
	// Create a file system with just the static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}

	// Setup HTTP server and routes
	http.Handle("/", http.FileServer(http.FS(staticFS)))
	http.HandleFunc("/ws", s.handleWebSocket)

	// Start WebSocket broadcasting
	go s.handleBroadcasts()

	// Start grid/mixer state monitoring
	go s.monitorState()

	// Start HTTP server
	log.Info().Msgf("Starting web server on %s", s.Addr)
	server := &http.Server{
		Addr:         s.Addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// buildStateMessage creates a message with the full grid and mixer state
func (s *WebUIServer) buildStateMessage() ([]byte, error) {
	message := map[string]interface{}{
		"type":       "stateUpdate",
		"device":     s.configManager.GetConfig().Device.Name,
		"activeBank": s.grid.ActiveBank(),
		"banks":      s.grid.Banks(),
		"cols":       s.grid.Cols(),
		"rows":       s.grid.Rows(),
		"pads":       s.grid.Snapshot(),
		"levels":     s.desk.Levels(),
	}
	return json.Marshal(message)
}

func (s *WebUIServer) write(conn *websocket.Conn, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, message)
}

func (s *WebUIServer) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
}

func (s *WebUIServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	// Register new client
	clientId := uuid.NewString()
	s.mu.Lock()
	s.clients[conn] = clientId
	s.mu.Unlock()
	log.Info().Str("client", clientId).Msgf("New WebSocket client connected: %s", conn.RemoteAddr())

	// Send initial state
	initialMsg := []byte(`{"type":"welcome","message":"Connected to seqkontrol"}`)
	if err := s.write(conn, initialMsg); err != nil {
		log.Error().Err(err).Msg("Failed to send welcome message")
		s.dropClient(conn)
		return
	}

	// Handle client messages
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Info().Str("client", clientId).Msgf("WebSocket client disconnected: %s", conn.RemoteAddr())
			s.dropClient(conn)
			break
		}

		log.Debug().Str("client", clientId).Msgf("Received message: %s", string(message))

		// Parse the message
		var clientMsg map[string]interface{}
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Error().Err(err).Msg("Failed to parse client message")
			continue
		}

		// Handle based on message type
		msgType, ok := clientMsg["type"].(string)
		if !ok {
			log.Error().Msg("Message missing 'type' field")
			continue
		}

		switch msgType {
		case "getState":
			jsonData, err := s.buildStateMessage()
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal state")
				continue
			}
			if err := s.write(conn, jsonData); err != nil {
				log.Error().Err(err).Msg("Failed to send state to client")
				s.dropClient(conn)
				return
			}

		case "togglePad":
			padFloat, ok := clientMsg["pad"].(float64)
			if !ok {
				log.Error().Msg("togglePad missing pad")
				continue
			}
			bank := s.grid.ActiveBank()
			if bankFloat, ok := clientMsg["bank"].(float64); ok {
				bank = int(bankFloat)
			}
			s.grid.TogglePlayState(bank, int(padFloat))

		case "setLevel":
			channelFloat, ok := clientMsg["channel"].(float64)
			if !ok {
				log.Error().Msg("setLevel missing channel")
				continue
			}
			levelFloat, ok := clientMsg["level"].(float64)
			if !ok {
				log.Error().Msg("setLevel missing level or not a number")
				continue
			}
			s.desk.SetLevel(int(channelFloat), levelFloat)

		case "setBank":
			bankFloat, ok := clientMsg["bank"].(float64)
			if !ok {
				log.Error().Msg("setBank missing bank")
				continue
			}
			if s.grid.SetActiveBank(int(bankFloat)) {
				s.configManager.UpdateActiveBank(int(bankFloat))
				s.PushState()
			}

		default:
			log.Debug().Str("type", msgType).Msg("Unknown message type")
		}
	}
}

func (s *WebUIServer) handleBroadcasts() {
	for {
		select {
		case message := <-s.broadcast:
			s.sendToAll(message)
		case message := <-s.updateCh:
			// Fast path for pad and level updates
			s.sendToAll(message)
		case <-s.stopChan:
			return
		}
	}
}

func (s *WebUIServer) sendToAll(message []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Debug().Int("clientCount", len(s.clients)).Str("message", string(message)).Msg("Broadcasting message to WebSocket clients")
	for client, clientId := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Error().Err(err).Str("client", clientId).Msg("Failed to send message to client")
			client.Close()
			delete(s.clients, client)
		}
	}
}

// monitorState periodically rebuilds the full state and broadcasts it when
// something changed behind the fast path's back
func (s *WebUIServer) monitorState() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	// Store previous state as a hash of the JSON message
	var prevStateHash string

	for {
		select {
		case <-ticker.C:
			jsonData, err := s.buildStateMessage()
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal state")
				continue
			}

			currentStateHash := fmt.Sprintf("%x", jsonData)
			if prevStateHash == currentStateHash {
				// Nothing changed, skip the update
				continue
			}
			prevStateHash = currentStateHash

			log.Debug().Msg("State changed, sending update to clients")
			s.broadcast <- jsonData
		case <-s.stopChan:
			return
		}
	}
}

// BroadcastMessage sends a message to all connected clients
func (s *WebUIServer) BroadcastMessage(message []byte) {
	s.broadcast <- message
}

// PushState broadcasts the full state to every client
func (s *WebUIServer) PushState() {
	jsonData, err := s.buildStateMessage()
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal state")
		return
	}
	s.BroadcastMessage(jsonData)
}

// NotifyPadUpdate pushes one pad change to all clients. Non-blocking so
// the MIDI path never waits on the UI.
func (s *WebUIServer) NotifyPadUpdate(change sequencer.PadChange) {
	s.notify(map[string]interface{}{
		"type":  "padUpdate",
		"bank":  change.Bank,
		"pad":   change.Pad,
		"state": change.State,
	})
}

// NotifyLevelUpdate pushes one strip level change to all clients.
func (s *WebUIServer) NotifyLevelUpdate(change mixer.LevelChange) {
	s.notify(map[string]interface{}{
		"type":    "levelUpdate",
		"channel": change.Channel,
		"level":   change.Level,
	})
}

func (s *WebUIServer) notify(update map[string]interface{}) {
	jsonData, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal update")
		return
	}
	select {
	case s.updateCh <- jsonData:
		// Sent successfully
	default:
		// Channel full, skip this update (next one will follow soon)
	}
}

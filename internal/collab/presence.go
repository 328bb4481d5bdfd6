package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager tracks each connection's cursor and selection. Entries
// are keyed by client id: one operator may hold several tabs.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]PresencePayload),
	}
}

// Update stores p for client, stamping the identity fields the client is
// not allowed to choose. It returns the stored value.
func (pm *PresenceManager) Update(client *Client, p PresencePayload) PresencePayload {
	p.UserID = client.UserID
	p.DisplayName = client.DisplayName

	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[client.ClientID] = p
	return p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

// ClearSelection drops a deleted shape from every selection and returns
// the client ids whose presence changed.
func (pm *PresenceManager) ClearSelection(shapeID int) []string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	var cleared []string
	for clientID, p := range pm.presences {
		if p.Selection != nil && *p.Selection == shapeID {
			p.Selection = nil
			pm.presences[clientID] = p
			cleared = append(cleared, clientID)
		}
	}
	return cleared
}

func (pm *PresenceManager) Get(clientID string) (PresencePayload, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.presences[clientID]
	return p, ok
}

func (pm *PresenceManager) GetAll() map[string]PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}

package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/chidiya/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []string
}

func (m *MockConnection) Send(event string, payload interface{}) error {
	m.sent = append(m.sent, event)
	return nil
}
func (m *MockConnection) Close() error                          { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                  { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)   {}
func (m *MockConnection) ReadEvent() (*network.Envelope, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestSession_RoomBinding(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})

	if sess.Room() != "" {
		t.Errorf("a fresh session belongs to no room, got %q", sess.Room())
	}

	sess.SetRoom("AB12C")
	if sess.Room() != "AB12C" {
		t.Errorf("expected room AB12C, got %q", sess.Room())
	}

	sess.SetRoom("")
	if sess.Room() != "" {
		t.Errorf("expected room binding cleared, got %q", sess.Room())
	}
}

func TestSession_SendTouchesActivity(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s1", conn)
	before := sess.LastActive

	time.Sleep(5 * time.Millisecond)
	if err := sess.Send("room:state", nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if !sess.LastActive.After(before) {
		t.Error("Send should refresh LastActive")
	}
	if len(conn.sent) != 1 || conn.sent[0] != "room:state" {
		t.Errorf("expected the event to reach the connection, got %v", conn.sent)
	}
}

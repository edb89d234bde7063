package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// send marshals and sends one event frame.
func send(c *websocket.Conn, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.WriteJSON(envelope{Event: event, Data: data})
}

func main() {
	var (
		addr = flag.String("addr", "localhost:4000", "server address")
		name = flag.String("name", "tester", "player name")
		code = flag.String("join", "", "room code to join (create a room when empty)")
	)
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			var env envelope
			if err := c.ReadJSON(&env); err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			log.Printf("<- %s %s", env.Event, string(env.Data))
		}
	}()

	if *code == "" {
		send(c, "room:create", map[string]string{"name": *name})
	} else {
		send(c, "room:join", map[string]string{"code": *code, "name": *name})
	}

	// Input loop: type "ready", "start", "ud", "not_ud", "reset" or "leave".
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "ready":
				send(c, "room:ready", map[string]bool{"ready": true})
			case "unready":
				send(c, "room:ready", map[string]bool{"ready": false})
			case "start":
				send(c, "game:start", struct{}{})
			case "ud", "not_ud":
				send(c, "round:answer", map[string]string{"choice": line})
			case "reset":
				send(c, "room:reset", struct{}{})
			case "state":
				send(c, "room:state", struct{}{})
			case "leave":
				send(c, "room:leave", struct{}{})
			default:
				log.Printf("unknown command %q", line)
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

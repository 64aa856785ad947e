// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package websocket streams the controller's derived state - log lines,
player events, track changes, and restart phases and chat notices - to
connected admin clients in real time.

It implements a hub-and-spoke pattern on top of gorilla/websocket:

	┌──────────┐
	│   Hub    │ ← Publish(topic, payload) fans out to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Each client runs two goroutines: readPump (drains the connection,
answers pings) and writePump (delivers queued messages, sends pings).

# Message Types

See the MessageType* constants: raw_line, join, leave, kick,
track_loaded, track_changed, event_started, restart_phase,
restart_chat, event_activated, schedule_summary. The event_activated and
schedule_summary types are declared, but nothing in this repository
publishes them.

# Usage

	hub := websocket.NewHub()
	tree.AddTransportService(hub)

	// any core component pushes through the same entry point:
	hub.Publish(websocket.MessageTypeRestartPhase, phaseUpdate)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
	    conn, err := upgrader.Upgrade(w, r, nil)
	    if err != nil {
	        return
	    }
	    client := websocket.NewClient(hub, conn)
	    hub.Register <- client
	    client.Start()
	})

# Thread Safety

The Hub serializes all state changes (client registration, broadcast)
through its Serve loop; no external lock is needed. Each Client has its
own read/write goroutines and no state shared between clients.

# Configuration

	writeWait      10s   time allowed to write one message
	pongWait       60s   time allowed to read a pong
	pingPeriod     54s   ping interval (must stay below pongWait)
	maxMessageSize 512KB max inbound message size
*/
package websocket

// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler handles WebSocket upgrade requests and manages client connections.
// It validates that the request uses the GET method, upgrades the HTTP connection
// to WebSocket, creates a new Client instance with a fresh connection id, and
// registers it with the hub, which starts the client's read/write pumps and
// emits the welcome message.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, hub, r.RemoteAddr)

	// Register the client with the hub; the hub will launch the pump goroutines.
	client.hub.register <- client
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Roomcast server is running!")
}

// TestPageHandler serves an HTML test page for exercising the room protocol.
// It provides a simple web interface to join a room, send messages, watch
// typing activity, and see the live user and room lists.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Roomcast Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #chat {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .lists { color: #555; margin: 5px 0; }
        .activity { color: #888; font-style: italic; min-height: 1em; }
        .admin { color: gray; font-style: italic; }
    </style>
</head>
<body>
    <h1>Roomcast Test</h1>

    <form id="join-form">
        <input type="text" id="name" placeholder="Your name" maxlength="20">
        <input type="text" id="room" placeholder="Room">
        <button type="submit">Join</button>
    </form>

    <form id="msg-form">
        <input type="text" id="message" placeholder="Your message" style="width: 300px">
        <button type="submit">Send</button>
    </form>

    <div id="chat"></div>
    <p class="activity" id="activity"></p>
    <p class="lists" id="users"></p>
    <p class="lists" id="rooms"></p>

    <script>
        const ws = new WebSocket('ws://' + location.host + '/ws');
        const chat = document.getElementById('chat');
        const nameInput = document.getElementById('name');
        const roomInput = document.getElementById('room');
        const msgInput = document.getElementById('message');
        const activity = document.getElementById('activity');
        let activityTimer = null;

        function emit(event, fields) {
            ws.send(JSON.stringify(Object.assign({ event: event }, fields)));
        }

        function addLine(text, cls) {
            const div = document.createElement('div');
            div.textContent = text;
            if (cls) div.className = cls;
            chat.appendChild(div);
            chat.scrollTop = chat.scrollHeight;
        }

        document.getElementById('join-form').addEventListener('submit', function(e) {
            e.preventDefault();
            if (nameInput.value && roomInput.value) {
                emit('enterRoom', { name: nameInput.value, room: roomInput.value });
                msgInput.focus();
            }
        });

        document.getElementById('msg-form').addEventListener('submit', function(e) {
            e.preventDefault();
            if (nameInput.value && msgInput.value && roomInput.value) {
                emit('message', { name: nameInput.value, text: msgInput.value });
                msgInput.value = '';
            }
            msgInput.focus();
        });

        msgInput.addEventListener('keypress', function() {
            emit('activity', { name: nameInput.value });
        });

        ws.onmessage = function(raw) {
            // The write pump batches queued frames with newline separators.
            raw.data.split('\n').forEach(function(frameText) {
                if (!frameText) return;
                const frame = JSON.parse(frameText);
                if (frame.event === 'message') {
                    activity.textContent = '';
                    const m = frame.payload;
                    const cls = m.name === 'Admin' ? 'admin' : '';
                    addLine(m.time + ' ' + m.name + ': ' + m.text, cls);
                } else if (frame.event === 'activity') {
                    activity.textContent = frame.payload + ' is typing...';
                    clearTimeout(activityTimer);
                    activityTimer = setTimeout(function() {
                        activity.textContent = '';
                    }, 2000);
                } else if (frame.event === 'userList') {
                    const users = frame.payload.users.map(function(u) { return u.name; });
                    document.getElementById('users').textContent =
                        'Users in ' + frame.payload.room + ': ' + users.join(', ');
                } else if (frame.event === 'roomList') {
                    document.getElementById('rooms').textContent =
                        'Active rooms: ' + frame.payload.rooms.join(', ');
                }
            });
        };

        ws.onclose = function() {
            addLine('Connection closed', 'admin');
        };
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

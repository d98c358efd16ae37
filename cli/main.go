// Package main provides a simple CLI client for the chat WebSocket endpoint.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mdossett204/adaptive-health-project/internal/logger"
	"github.com/mdossett204/adaptive-health-project/internal/transport/ws"
)

// Client represents a WebSocket client.
type Client struct {
	conn      *websocket.Conn
	userID    string
	sessionID string
	done      chan struct{}
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, sessionID string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn:      conn,
		sessionID: sessionID,
		done:      make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// SendHello authenticates the connection and waits for hello_ack.
func (c *Client) SendHello(token string) error {
	msg := ws.HelloMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
		},
		Token: token,
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base ws.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}

	switch base.Type {
	case ws.TypeHelloAck:
		var ack ws.HelloAckMessage
		if err := json.Unmarshal(data, &ack); err != nil {
			return fmt.Errorf("unmarshal hello_ack: %w", err)
		}
		c.userID = ack.UserID
		return nil
	case ws.TypeError:
		var errMsg ws.ErrorMessage
		_ = json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	default:
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}
}

// SendChat submits one chat turn.
func (c *Client) SendChat(userID, model, content string) error {
	msg := ws.ChatMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeChat,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
		UserID:  userID,
		Message: content,
		Model:   model,
	}

	return c.conn.WriteJSON(msg)
}

// ReadMessages reads and prints messages from the server.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					logger.Error("Read error", "error", err)
				}
				return
			}
			printMessage(data)
		}
	}
}

func printMessage(data []byte) {
	var base ws.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		logger.Warn("Unmarshal error", "error", err)
		return
	}

	switch base.Type {
	case ws.TypeChatResult:
		var msg ws.ChatResultMessage
		if err := json.Unmarshal(data, &msg); err == nil && msg.Result != nil {
			fmt.Printf("\n[%s] %s\n", msg.Result.ModelUsed, msg.Result.Response)
			fmt.Printf("  (messages: %d, context items: %d)\n", msg.Result.ConversationLength, msg.Result.ContextItemsFound)
			if msg.Result.RateLimited && msg.Result.RateLimitExpiresAt != nil {
				fmt.Printf("  rate limit reached, next chat after %s\n", msg.Result.RateLimitExpiresAt.Local().Format(time.Kitchen))
			}
			return
		}
	case ws.TypeRateLimited:
		var msg ws.RateLimitedMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			fmt.Printf("\n[rate limited] %s (%dh %dm remaining)\n", msg.Error, msg.RemainingHours, msg.RemainingMinutes)
			return
		}
	case ws.TypeError:
		var msg ws.ErrorMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			fmt.Printf("\n[error] %s: %s\n", msg.Code, msg.Message)
			return
		}
	}

	var prettyJSON map[string]interface{}
	_ = json.Unmarshal(data, &prettyJSON)
	formatted, _ := json.MarshalIndent(prettyJSON, "", "  ")
	fmt.Printf("\n[%s] Received:\n%s\n", base.Type, string(formatted))
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws/chat", "WebSocket server address")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "Bearer token for authentication")
	userID := flag.String("user", "", "User ID (defaults to the token subject)")
	sessionID := flag.String("session", "", "Session ID (defaults to a new random id)")
	model := flag.String("model", "", "Model to use (gpt|claude)")
	flag.Parse()

	if *sessionID == "" {
		*sessionID = uuid.New().String()
	}

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr, *sessionID)
	if err != nil {
		logger.Fatal("Failed to connect", "error", err)
	}
	defer client.Close()

	if err := client.SendHello(*token); err != nil {
		logger.Fatal("Hello failed", "error", err)
	}

	fmt.Printf("Authenticated as %s, session %s\n", client.userID, client.sessionID)
	fmt.Println("\nType a message and press Enter to send.")
	fmt.Println("Commands: /model <gpt|claude>, /quit to exit")

	go client.ReadMessages()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		default:
			if !scanner.Scan() {
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}

			if strings.HasPrefix(input, "/model ") {
				*model = strings.TrimSpace(strings.TrimPrefix(input, "/model "))
				fmt.Printf("Model set to %q\n", *model)
				continue
			}

			if err := client.SendChat(*userID, *model, input); err != nil {
				logger.Error("Send error", "error", err)
			}
		}
	}
}

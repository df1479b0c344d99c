package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// ipcCommand is one request written to mpv's socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcMessage is anything mpv writes back: a reply carries request_id,
// an event carries event.
type ipcMessage struct {
	RequestID *int64          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	Event     string `json:"event,omitempty"`
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
	FileError string `json:"file_error,omitempty"`
}

type ipcReply struct {
	data json.RawMessage
	err  error
}

// ipcConn multiplexes commands and events over one persistent connection.
// Replies are matched to their command by request_id.
type ipcConn struct {
	conn net.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan ipcReply
	closed  chan struct{}
	err     error
}

func newIPCConn(conn net.Conn) *ipcConn {
	return &ipcConn{
		conn:    conn,
		pending: make(map[int64]chan ipcReply),
		closed:  make(chan struct{}),
	}
}

// call sends command and waits for its reply.
func (c *ipcConn) call(ctx context.Context, command ...any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, ErrDetached
	}
	c.nextID++
	id := c.nextID
	reply := make(chan ipcReply, 1)
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	payload, err := json.Marshal(ipcCommand{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(append(payload, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write: %v", ErrDetached, err)
	}

	select {
	case r := <-reply:
		return r.data, r.err
	case <-c.closed:
		return nil, ErrDetached
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// readLoop routes replies to pending calls and hands every event to onEvent.
// It returns when the connection is closed.
func (c *ipcConn) readLoop(onEvent func(ipcMessage), onMalformed func(line []byte, err error)) error {
	reader := bufio.NewReader(c.conn)

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 1 {
			c.dispatch(line, onEvent, onMalformed)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = nil
			}
			c.shutdown(ErrDetached)
			return err
		}
	}
}

func (c *ipcConn) dispatch(line []byte, onEvent func(ipcMessage), onMalformed func([]byte, error)) {
	var msg ipcMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		onMalformed(line, err)
		return
	}

	if msg.RequestID != nil && msg.Event == "" {
		c.mu.Lock()
		reply, ok := c.pending[*msg.RequestID]
		c.mu.Unlock()
		if !ok {
			return
		}

		r := ipcReply{data: msg.Data}
		if msg.Error != "" && msg.Error != "success" {
			r.err = fmt.Errorf("mpv error: %s", msg.Error)
		}
		reply <- r
		return
	}

	if msg.Event != "" {
		onEvent(msg)
		return
	}
	onMalformed(line, errors.New("neither reply nor event"))
}

func (c *ipcConn) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	close(c.closed)
}

func (c *ipcConn) Close() error {
	c.shutdown(ErrDetached)
	return c.conn.Close()
}

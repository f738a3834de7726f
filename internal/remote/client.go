package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultClientTimeout is the default timeout for client operations.
const DefaultClientTimeout = 5 * time.Second

// Client connects to a running session's control socket.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a control client for the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// call sends a JSON-RPC request and returns the response.
func (c *Client) call(method string, params any) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return nil, c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	req := Request{Method: method, Params: params}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("session error: %s", resp.Error)
	}
	return &resp, nil
}

// wrapConnError converts connection errors to user-friendly messages.
func (c *Client) wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return errors.New("no brew session running (socket not found)")
		case syscall.ECONNREFUSED:
			return errors.New("no brew session running (connection refused)")
		}
	}

	if os.IsNotExist(err) {
		return errors.New("no brew session running (socket not found)")
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("session request timed out")
	}
	return fmt.Errorf("connect to session: %w", err)
}

// Status returns the live session status.
func (c *Client) Status() (*StatusResponse, error) {
	resp, err := c.call("status", nil)
	if err != nil {
		return nil, err
	}

	// Re-marshal to convert the generic result into StatusResponse.
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var status StatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &status, nil
}

// Pause pauses the session clock.
func (c *Client) Pause() error {
	_, err := c.call("pause", nil)
	return err
}

// Resume resumes a paused session.
func (c *Client) Resume() error {
	_, err := c.call("resume", nil)
	return err
}

// Reset tears down the session.
func (c *Client) Reset(reason string) error {
	_, err := c.call("reset", ResetParams{Reason: reason})
	return err
}

// Jump repositions the session at the start of the given stage.
func (c *Client) Jump(stage int) error {
	_, err := c.call("jump", JumpParams{Stage: stage})
	return err
}

// IsRunning checks whether a session is reachable on the socket.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

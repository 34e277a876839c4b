package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mariwald/rsvpd/internal/logger"
)

// maxLineLen bounds a single request line; anything longer is a misbehaving
// client, not a legal command.
const maxLineLen = 4096

type conn struct {
	server *RSVPServer
	conn   net.Conn
}

// serve handles one request/response exchange and closes the connection.
// The wire format is "<clientName>\n<commandLine>\n"; a single response is
// written back before close.
func (c *conn) serve(ctx context.Context) {
	defer c.conn.Close()

	c.server.metrics.ConnOpened()
	defer c.server.metrics.ConnClosed()

	reqID := uuid.New()
	logger.Debug("New connection from %s (request %s)", c.conn.RemoteAddr(), reqID)

	if err := c.server.limiter.Wait(ctx); err != nil {
		logger.Debug("Rate limit wait aborted for %s: %v", reqID, err)
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	if err := c.handleRequest(reqID.String()); err != nil {
		if err != io.EOF {
			logger.Debug("Error handling request %s: %v", reqID, err)
		}
	}
}

func (c *conn) handleRequest(reqID string) error {
	if t := c.server.config.ReadTimeout; t > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(t)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
	}

	reader := bufio.NewReaderSize(c.conn, maxLineLen)

	client, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("read client name: %w", err)
	}
	if client == "" {
		return fmt.Errorf("empty client name")
	}

	request, err := readLine(reader)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read command line: %w", err)
	}

	logger.Debug("Request %s: client=%q line=%q", reqID, client, request)

	response := c.server.engine.Handle(client, request)

	return c.sendResponse(response)
}

func (c *conn) sendResponse(response string) error {
	if t := c.server.config.WriteTimeout; t > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(t)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	if _, err := c.conn.Write([]byte(response)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// readLine reads up to one newline and strips the terminator. A final line
// without a newline is returned with io.EOF.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}

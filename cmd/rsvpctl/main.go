// Command rsvpctl is the interactive command-line client for rsvpd.
//
// It reads protocol commands from stdin, validates them locally before
// spending a round trip, and sends each accepted command to the server
// as its own connection. Every command and response is appended to a
// per-session audit log named <client>_<HHMMSS>.log.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/mariwald/rsvpd/internal/audit"
	"github.com/mariwald/rsvpd/internal/logger"
	"github.com/mariwald/rsvpd/internal/protocol"
	"github.com/mariwald/rsvpd/internal/registry"
)

// session tracks the client's view of its own state. The server is
// authoritative; this only drives local pre-flight validation.
type session struct {
	name       string
	addr       string
	timeout    time.Duration
	registered bool
	audit      *audit.Sink
}

// send performs one request round trip: dial, write the two-line
// payload, read the single response the server writes before closing.
func (s *session) send(line string) (string, error) {
	conn, err := net.DialTimeout("tcp", s.addr, s.timeout)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", s.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}

	payload := s.name + "\n" + line + "\n"
	if _, err := conn.Write([]byte(payload)); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	response, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return strings.TrimRight(string(response), "\n"), nil
}

// run executes one typed line: pre-flight validation, round trip, and
// local state bookkeeping. Returns false when the session is over.
func (s *session) run(line string) bool {
	tokens := protocol.Tokenize(line)
	if len(tokens) == 0 {
		return true
	}
	cmd := protocol.Classify(tokens[0])

	// Reject locally what the server would reject anyway.
	if _, rej := protocol.Validate(cmd, tokens, s.registered); rej != nil {
		rej.Client = s.name
		fmt.Println(rej.Response())
		s.audit.Log("%s\t%s", line, rej.Response())
		return true
	}

	response, err := s.send(line)
	if err != nil {
		logger.Error("%v", err)
		return false
	}

	fmt.Println(response)
	s.audit.Log("%s\t%s", line, response)

	switch cmd {
	case protocol.CmdRegister:
		if response == protocol.RespSuccess {
			s.registered = true
		} else {
			// The name is taken by another session; ours is over.
			return false
		}
	case protocol.CmdUnregister:
		if response == protocol.RespSuccess {
			s.registered = false
		}
	case protocol.CmdExit:
		return false
	}

	return true
}

func main() {
	addr := flag.String("addr", "localhost:7777", "Server address")
	name := flag.String("name", "", "Client name (prompted if empty)")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	logLevel := flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")

	flag.Parse()

	logger.SetLevel(*logLevel)

	stdin := bufio.NewScanner(os.Stdin)

	clientName := strings.TrimSpace(*name)
	for clientName == "" {
		fmt.Print("Client name: ")
		if !stdin.Scan() {
			return
		}
		clientName = strings.TrimSpace(stdin.Text())
	}
	clientName = registry.Normalize(clientName)

	auditPath := fmt.Sprintf("%s_%s.log", clientName, time.Now().Format("150405"))
	sink, err := audit.NewFileSink(auditPath)
	if err != nil {
		logger.Error("Failed to open session log: %v", err)
		os.Exit(1)
	}
	defer sink.Close()

	s := &session{
		name:    clientName,
		addr:    *addr,
		timeout: *timeout,
		audit:   sink,
	}

	fmt.Printf("Connected as %s (server %s). Type EXIT to quit.\n", clientName, *addr)

	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			break
		}
		if !s.run(stdin.Text()) {
			break
		}
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/vovakirdan/wirechat-unix/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("line_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	socket := flag.String("socket", "/tmp/wirechat.sock", "Unix socket path")
	nick := flag.String("nick", "tester", "nickname to announce with NICK")
	room := flag.Int("room", 1, "room id to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", *socket)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
	}

	lines := []string{
		proto.CommandNick + " " + *nick,
		fmt.Sprintf("%s %d", proto.CommandJoin, *room),
		proto.CommandMsg + " " + *text,
	}
	for _, line := range lines {
		if _, err := fmt.Fprint(conn, line+proto.Terminator); err != nil {
			return fmt.Errorf("send %q: %w", line, err)
		}
	}

	// Print whatever peers in the room say until the timeout.
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fmt.Printf("Received: %s\n", scanner.Text())
	}

	var netErr net.Error
	if err := scanner.Err(); err != nil && !(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("read: %w", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = fmt.Fprint(conn, proto.CommandQuit+proto.Terminator)
	return nil
}

// Command ax25dial dials a station over a KISS transport and bridges
// the connected-mode byte stream to stdin/stdout. It is a minimal
// non-interactive front end: no TUI, no packet log rendering, per
// spec.md §1's scope note excluding those from the core.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/602p/tncture/ax25"
	"github.com/602p/tncture/transport/kiss"
)

func main() {
	var (
		tcpAddr   = flag.StringP("tcp", "t", "", "dial a KISS-over-TCP TNC at host:port")
		loopback  = flag.BoolP("loopback", "l", false, "open a local PTY loopback instead of dialing out")
		mycall    = flag.StringP("mycall", "m", "", "our station callsign, e.g. N0CALL-1")
		theircall = flag.StringP("theircall", "r", "", "remote station callsign, e.g. N0CALL-2")
		verbose   = flag.BoolP("verbose", "v", false, "enable debug logging")
		help      = flag.BoolP("help", "h", false, "show this help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	ax25.SetLogger(logger)

	my, err := parseAddress(*mycall)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mycall:", err)
		os.Exit(2)
	}
	their, err := parseAddress(*theircall)
	if err != nil {
		fmt.Fprintln(os.Stderr, "theircall:", err)
		os.Exit(2)
	}

	port, err := openPort(*tcpAddr, *loopback)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open transport:", err)
		os.Exit(1)
	}

	session := ax25.NewSession(port, my, their, ax25.WithLogger(logger))

	stdinBytes := make(chan []byte)
	go pumpStdin(stdinBytes)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		select {
		case b, ok := <-stdinBytes:
			if !ok {
				session.Disconnect()
				stdinBytes = nil
				continue
			}
			session.Write(b)
		case <-ticker.C:
			session.Poll(time.Now())
			if b := session.Read(); len(b) > 0 {
				out.Write(b)
				out.Flush()
			}
			if session.ConnState() == ax25.DISCONNECTED {
				return
			}
		}
	}
}

func pumpStdin(out chan<- []byte) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			out <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, "stdin:", err)
			}
			close(out)
			return
		}
	}
}

func openPort(tcpAddr string, loopback bool) (ax25.Port, error) {
	switch {
	case loopback:
		p, err := kiss.NewPTYPort()
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(os.Stderr, "loopback PTY at", p.SlaveName())
		return p, nil
	case tcpAddr != "":
		return kiss.DialTCP(tcpAddr, 10*time.Second)
	default:
		return nil, fmt.Errorf("one of --tcp or --loopback is required")
	}
}

// parseAddress accepts CALL or CALL-SSID.
func parseAddress(s string) (ax25.Address, error) {
	if s == "" {
		return ax25.Address{}, fmt.Errorf("callsign is required")
	}
	parts := strings.SplitN(s, "-", 2)
	call := strings.ToUpper(parts[0])
	if len(call) == 0 || len(call) > 6 {
		return ax25.Address{}, fmt.Errorf("callsign must be 1-6 characters: %q", s)
	}

	ssid := 0
	if len(parts) == 2 {
		var err error
		ssid, err = strconv.Atoi(parts[1])
		if err != nil || ssid < 0 || ssid > 15 {
			return ax25.Address{}, fmt.Errorf("ssid must be 0-15: %q", s)
		}
	}
	return ax25.NewAddress(call, ssid), nil
}

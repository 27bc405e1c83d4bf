package telnet

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command and option bytes (RFC 854, RFC 857, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
)

// MaxLineLength bounds a single input line; excess bytes are discarded.
const MaxLineLength = 512

// Conn is a line-oriented Telnet connection. Writes are serialized so the
// output pump and the prompt writer may share it.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader

	readTimeout  time.Duration
	writeTimeout time.Duration
	// afterCR is set when the last line ended on a bare CR, so a following
	// LF or NUL belongs to that terminator.
	afterCR bool

	mu        sync.Mutex
	closeOnce sync.Once
}

// NewConn wraps raw. Zero timeouts disable the corresponding deadline.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate asks the client to suppress go-ahead.
func (c *Conn) Negotiate() error {
	return c.write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next input line with Telnet commands and control
// characters removed. CR, LF and CRLF all end a line.
//
// Postcondition: the result is at most MaxLineLength bytes and carries no
// line terminator.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	var line strings.Builder
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		if c.afterCR {
			c.afterCR = false
			if b == '\n' || b == 0 {
				continue
			}
		}
		switch {
		case b == IAC:
			lit, err := c.readCommand()
			if err != nil {
				return line.String(), err
			}
			if lit && line.Len() < MaxLineLength {
				line.WriteByte(IAC)
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			c.afterCR = true
			return line.String(), nil
		case b < 32 && b != '\t':
			// other control characters are dropped
		default:
			if line.Len() < MaxLineLength {
				line.WriteByte(b)
			}
		}
	}
}

// readCommand consumes the rest of a command after IAC. It reports true for
// an escaped literal 0xFF.
func (c *Conn) readCommand() (bool, error) {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return false, err
	}
	switch cmd {
	case IAC:
		return true, nil
	case WILL, WONT, DO, DONT:
		_, err := c.reader.ReadByte()
		return false, err
	case SB:
		var prev byte
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return false, err
			}
			if prev == IAC && b == SE {
				return false, nil
			}
			prev = b
		}
	default:
		return false, nil
	}
}

// WriteLine sends text followed by CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.write([]byte(text + "\r\n"))
}

// WritePrompt sends text with no line terminator.
func (c *Conn) WritePrompt(text string) error {
	return c.write([]byte(text))
}

func (c *Conn) write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.raw.Write(p); err != nil {
		return fmt.Errorf("telnet write: %w", err)
	}
	return nil
}

// Close closes the underlying connection. Idempotent.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.raw.Close() })
	return err
}

// RemoteAddr returns the client's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

package virtual

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
)

// ServerConfig describes the screen a Server exposes.
type ServerConfig struct {
	// Size is the initial screen size. Clients resize it on connect.
	Size   gfx.Size
	Logger log.FieldLogger
}

// Server plays display lists from any number of clients onto one Screen.
// Sessions take turns a list at a time.
type Server struct {
	screen *Screen
	log    log.FieldLogger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// SessionInfo describes a connected client.
type SessionInfo struct {
	ID      uuid.UUID `json:"id"`
	Remote  string    `json:"remote"`
	Started time.Time `json:"started"`
	Lists   uint64    `json:"lists"`
	Bytes   uint64    `json:"bytes"`
}

type session struct {
	id      uuid.UUID
	conn    net.Conn
	r       *bufio.Reader
	log     log.FieldLogger
	started time.Time
	window  gfx.Rect

	// wmu orders replies and touch packets on conn.
	wmu sync.Mutex

	mu    sync.Mutex
	lists uint64
	bytes uint64
}

func NewServer(cfg ServerConfig) *Server {
	size := cfg.Size
	if size.Pixels() == 0 {
		size = DefaultSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Server{
		screen:   NewScreen(size),
		log:      logger,
		sessions: make(map[uuid.UUID]*session),
	}
}

func (s *Server) Screen() *Screen { return s.screen }

// Serve accepts connections on ln until ctx is done, then closes ln and
// waits for the sessions to end.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("virtual: accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ServeConn(ctx, conn); err != nil {
				s.log.WithError(err).WithField("remote", conn.RemoteAddr().String()).Warn("session failed")
			}
		}()
	}
}

// ServeConn runs one client session until the connection closes or ctx is
// done. A clean close by the client is not an error.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	sess := &session{
		id:      uuid.New(),
		conn:    conn,
		r:       bufio.NewReader(conn),
		started: time.Now(),
	}
	sess.log = s.log.WithField("session", sess.id.String())
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	sess.log.WithField("remote", conn.RemoteAddr().String()).Info("session started")

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		sess.log.Info("session ended")
	}()

	for {
		magic, data, err := readPacket(sess.r)
		switch {
		case errors.Is(err, io.EOF) || ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		case magic != packetMagic:
			return fmt.Errorf("%w %#x from client", ErrBadMagic, magic)
		}
		if err := s.play(sess, data); err != nil {
			return err
		}
	}
}

// Sessions lists connected clients, oldest first.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, sess.info())
	}
	s.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Started.Before(infos[j].Started) })
	return infos
}

// SendTouch reports a pointer event to every client.
func (s *Server) SendTouch(t Touch) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		if err := sess.send(touchMagic, t.marshal()); err != nil {
			sess.log.WithError(err).Debug("touch not delivered")
		}
	}
}

func (sess *session) info() SessionInfo {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return SessionInfo{
		ID:      sess.id,
		Remote:  sess.conn.RemoteAddr().String(),
		Started: sess.started,
		Lists:   sess.lists,
		Bytes:   sess.bytes,
	}
}

func (sess *session) send(magic uint32, data []byte) error {
	sess.wmu.Lock()
	defer sess.wmu.Unlock()
	return writePacket(sess.conn, magic, data)
}

func (sess *session) count(n int, list bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.bytes += uint64(n)
	if list {
		sess.lists++
	}
}

// play decodes one list and applies it to the screen. Reference fields
// carry no meaning here: buffers arrive as packets of their own and
// callbacks stay with the client.
func (s *Server) play(sess *session, content []byte) error {
	sess.count(len(content), true)
	l := displaylist.NewFromBytes(nil, content)
	scr := s.screen
	scr.mu.Lock()
	defer scr.mu.Unlock()
	scr.lists++
	surface := scr.surface

	for !l.AtEnd() {
		code, n, _ := l.ReadHeader()
		switch code {
		case displaylist.CodeCommand:
			cmd := l.ReadUint8()
			if err := scr.command(cmd, l.ReadBytes(n)); err != nil {
				return err
			}
			surface = scr.surface
		case displaylist.CodeRepeat:
			count := l.ReadVar()
			surface.BlockFill(l.ReadBytes(n), uint32(count))
		case displaylist.CodeSetColumn:
			sess.window.X = int16(l.ReadVar())
			sess.window.W = uint16(n + 1)
		case displaylist.CodeSetRow:
			sess.window.Y = int16(l.ReadVar())
			sess.window.H = uint16(n + 1)
			surface.SetAddrWindow(sess.window)
		case displaylist.CodeWriteStart:
			surface.SetAddrWindow(sess.window)
			surface.WritePixels(l.ReadBytes(n))
		case displaylist.CodeWriteData:
			surface.WritePixels(l.ReadBytes(n))
		case displaylist.CodeWriteDataBuffer:
			l.ReadBytes(displaylist.PtrSize)
			magic, data, err := readPacket(sess.r)
			if err != nil {
				return err
			}
			if magic != packetMagic || len(data) != n {
				return fmt.Errorf("%w: data packet of %d bytes, want %d", ErrBadList, len(data), n)
			}
			sess.count(len(data), false)
			surface.WritePixels(data)
		case displaylist.CodeReadStart, displaylist.CodeRead:
			l.ReadBytes(displaylist.PtrSize)
			if code == displaylist.CodeReadStart {
				surface.SetAddrWindow(sess.window)
			}
			rb := gfx.NewReadBuffer(Format, n)
			surface.ReadDataBuffer(&rb, nil, nil)
			if err := sess.send(packetMagic, rb.Bytes()); err != nil {
				return err
			}
		case displaylist.CodeCallback:
			l.ReadBytes(displaylist.PtrSize)
			if n != 0 {
				l.AlignRead()
				l.ReadBytes(n)
			}
		case displaylist.CodeDelay:
			l.ReadUint8()
			l.ReadBytes(n)
		default:
			return fmt.Errorf("%w: %s entry at offset %d", ErrBadList, code, l.ReadOffset())
		}
	}
	return nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/typequest/internal/engine"
	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/store"
)

// Message types exchanged on /ws/play.
const (
	MsgInput       = "input"
	MsgMode        = "mode"
	MsgNext        = "next"
	MsgState       = "state"
	MsgAchievement = "achievement"
	MsgRound       = "round"
	MsgError       = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	ioTimeout      = 5 * time.Second
)

func newUpgrader(allowed []string) *websocket.Upgrader {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/"); o != "" {
			origins[o] = true
		}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, origins)
		},
	}
}

// originAllowed accepts clients that send no Origin (CLI tools), browsers on
// the same host, and origins listed in Config.AllowedOrigins.
func originAllowed(r *http.Request, allowed map[string]bool) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
}

// ClientMessage is sent by the player.
type ClientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Mode string `json:"mode,omitempty"`
}

// ServerMessage is pushed to the player.
type ServerMessage struct {
	Type        string             `json:"type"`
	State       *engine.Snapshot   `json:"state,omitempty"`
	LevelUps    int                `json:"level_ups,omitempty"`
	Achievement *model.Achievement `json:"achievement,omitempty"`
	Round       *model.Round       `json:"round,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type userIdentity string

func (u userIdentity) CurrentUser() (string, bool) {
	return string(u), u != ""
}

type describedUnlock struct {
	userID  string
	ids     []string
	details []model.Achievement
}

func (s *Server) playHandler(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := s.resolveProfile(ctx, c.Query("user"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.fail(c, http.StatusNotFound, errors.New("user not found"))
		return
	case err != nil:
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	mode := model.ModeWords
	if raw := c.Query("mode"); raw != "" {
		if mode, err = model.ParseMode(raw); err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
	}

	syncer := engine.NewSyncer(userIdentity(profile.UserID), s.store, s.store)
	loaded, err := syncer.Load(ctx)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	eng := engine.New(s.cfg.Texts(), engine.Options{
		QuietPeriod:   s.cfg.QuietPeriod,
		ToastDuration: s.cfg.ToastDuration,
	})
	if err := eng.Attach(loaded.UserID, loaded.Progress, loaded.Unlocked, mode); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	s.sessions.Add(1)
	defer s.sessions.Done()
	logging.Infof("Play session opened for %s", profile.Username)
	newPlaySession(conn, eng, syncer, s.store).run(s.stopping)
	logging.Infof("Play session closed for %s", profile.Username)
}

// playSession is one connection. run owns the engine; helper goroutines
// only do I/O and hand results back over channels.
type playSession struct {
	conn   *websocket.Conn
	engine *engine.Engine
	syncer *engine.Syncer
	rounds Store

	done         chan struct{}
	persist      chan uint64
	flushed      chan engine.FlushResult
	described    chan describedUnlock
	toastExpired chan uint64
	flushes      sync.WaitGroup
}

func newPlaySession(conn *websocket.Conn, eng *engine.Engine, syncer *engine.Syncer, rounds Store) *playSession {
	return &playSession{
		conn:         conn,
		engine:       eng,
		syncer:       syncer,
		rounds:       rounds,
		done:         make(chan struct{}),
		persist:      make(chan uint64),
		flushed:      make(chan engine.FlushResult),
		described:    make(chan describedUnlock),
		toastExpired: make(chan uint64),
	}
}

// deliver hands v to the loop unless the session has ended.
func deliver[T any](done <-chan struct{}, ch chan<- T, v T) {
	select {
	case ch <- v:
	case <-done:
	}
}

func (p *playSession) run(stop <-chan struct{}) {
	defer p.close()
	in := make(chan ClientMessage)
	go p.readLoop(in)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	if err := p.sendState(0); err != nil {
		return
	}
	for {
		var err error
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			err = p.handle(msg)
		case <-stop:
			return
		case <-ticker.C:
			if p.engine.Tick() {
				err = p.sendState(0)
			}
		case <-pinger.C:
			err = p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		case gen := <-p.persist:
			if w, ok := p.engine.PersistDue(gen); ok {
				p.startFlush(w)
			}
		case res := <-p.flushed:
			if ids := p.engine.ApplyFlush(res); len(ids) > 0 {
				go p.describe(res.Write.UserID, ids)
			}
		case d := <-p.described:
			err = p.showUnlock(d)
		case gen := <-p.toastExpired:
			if p.engine.DismissToast(gen) {
				err = p.sendState(0)
			}
		}
		if err != nil {
			logging.Warnf("Play session write failed: %v", err)
			return
		}
	}
}

func (p *playSession) readLoop(in chan<- ClientMessage) {
	defer close(in)
	p.conn.SetReadLimit(maxMessageSize)
	if err := p.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg ClientMessage
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warnf("WebSocket read error: %v", err)
			}
			return
		}
		select {
		case in <- msg:
		case <-p.done:
			return
		}
	}
}

func (p *playSession) handle(msg ClientMessage) error {
	switch msg.Type {
	case MsgInput:
		res, err := p.engine.Input(msg.Text)
		if err != nil {
			return p.sendError(err)
		}
		if res.PersistGen != 0 {
			gen := res.PersistGen
			time.AfterFunc(p.engine.QuietPeriod(), func() { deliver(p.done, p.persist, gen) })
		}
		if res.Round != nil {
			go p.saveRound(*res.Round)
			if err := p.send(ServerMessage{Type: MsgRound, Round: res.Round}); err != nil {
				return err
			}
		}
		return p.sendState(res.LevelUps)
	case MsgMode:
		mode, err := model.ParseMode(msg.Mode)
		if err != nil {
			return p.sendError(err)
		}
		if err := p.engine.SelectMode(mode); err != nil {
			return p.sendError(err)
		}
		return p.sendState(0)
	case MsgNext:
		if err := p.engine.RequestNewText(); err != nil {
			return p.sendError(err)
		}
		return p.sendState(0)
	default:
		return p.sendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (p *playSession) showUnlock(d describedUnlock) error {
	ids := p.engine.CommitUnlocked(d.userID, d.ids)
	a, ok := engine.FirstUnlock(ids, d.details)
	if !ok {
		return nil
	}
	gen := p.engine.ShowAchievement(a)
	time.AfterFunc(p.engine.ToastDuration(), func() { deliver(p.done, p.toastExpired, gen) })
	return p.send(ServerMessage{Type: MsgAchievement, Achievement: &a})
}

func (p *playSession) startFlush(w engine.Write) {
	p.flushes.Add(1)
	go func() {
		defer p.flushes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		deliver(p.done, p.flushed, p.syncer.Flush(ctx, w))
	}()
}

func (p *playSession) describe(userID string, ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	details, err := p.syncer.Describe(ctx, userID, ids)
	if err != nil {
		return
	}
	deliver(p.done, p.described, describedUnlock{userID: userID, ids: ids, details: details})
}

func (p *playSession) saveRound(r model.Round) {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	if _, err := p.rounds.InsertRound(ctx, r); err != nil {
		logging.Errorf("Failed to save round for %s: %v", r.UserID, err)
	}
}

// close ends the session: helpers are released, in-flight writes drain, and
// whatever progress is still pending is written before the socket closes.
func (p *playSession) close() {
	close(p.done)
	p.flushes.Wait()
	if w, ok := p.engine.Teardown(); ok {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		p.syncer.Flush(ctx, w)
		cancel()
	}
	if err := p.conn.Close(); err != nil {
		_ = err
	}
}

func (p *playSession) sendState(levelUps int) error {
	snap := p.engine.Snapshot()
	return p.send(ServerMessage{Type: MsgState, State: &snap, LevelUps: levelUps})
}

func (p *playSession) sendError(err error) error {
	return p.send(ServerMessage{Type: MsgError, Error: err.Error()})
}

func (p *playSession) send(msg ServerMessage) error {
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteJSON(msg)
}

package tui

import (
	"context"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/ptyglass/ptyglass/internal/config"
	"github.com/ptyglass/ptyglass/internal/frame"
	"github.com/ptyglass/ptyglass/internal/gesture"
	"github.com/ptyglass/ptyglass/internal/input"
	"github.com/ptyglass/ptyglass/internal/opqueue"
	"github.com/ptyglass/ptyglass/internal/render"
	"github.com/ptyglass/ptyglass/internal/scroll"
	"github.com/ptyglass/ptyglass/internal/session"
	"github.com/ptyglass/ptyglass/internal/termdata"
	"github.com/ptyglass/ptyglass/internal/transport"
	"github.com/ptyglass/ptyglass/internal/tuilog"
)

// frameInterval is the tick cadence driving the pipeline.
const frameInterval = time.Second / 60

// frameMsg is one frame tick.
type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// ConfigReloadedMsg applies a live configuration reload. Sent from the
// config watcher via Program.Send.
type ConfigReloadedMsg struct {
	Cfg config.Config
}

// Touch messages let a platform bridge inject touch input via
// Program.Send.
type (
	TouchStartMsg struct {
		Points []gesture.Point
		Time   time.Time
	}
	TouchMoveMsg struct {
		Points []gesture.Point
		Time   time.Time
	}
	TouchEndMsg struct {
		Time time.Time
	}
	TouchCancelMsg struct{}
)

// feedbackState carries the gesture feedback label from recognizer
// callbacks to View.
type feedbackState struct {
	text string
}

// Model is the terminal viewer: it hosts the whole pipeline and drives
// it from the frame tick.
type Model struct {
	cfg config.Config

	data   *termdata.LineModel
	mgr    *scroll.Manager
	loop   *frame.Loop
	queue  *opqueue.Queue
	frames *frameStore
	rend   *render.Renderer
	sess   *session.Session
	conn   transport.Connection
	wheel  *input.Wheel
	drag   *input.DragScroller
	rec    *gesture.Recognizer
	cb     gesture.Callbacks
	fb     *feedbackState

	keys   viewerKeyMap
	width  int
	height int
	ready  bool
	insert bool
}

// New assembles the pipeline. conn may be nil, in which case a WebSocket
// connection is created from the config.
func New(cfg config.Config, conn transport.Connection) Model {
	data := termdata.NewLineModel(80)
	data.SetMaxRows(cfg.Display.Scrollback)

	mgr := scroll.NewManager()
	mgr.SetAtBottomTolerance(cfg.Scroll.AtBottomTolerance)

	loop := frame.NewLoop()
	queue := opqueue.New(loop, cfg.Queue.FrameBudget.Duration)
	frames := &frameStore{}
	rend := render.New(data, frames, cfg.Display.LineHeight)
	rend.SetDiagnostics(cfg.Display.Diagnostics)

	sess := session.New(data, mgr, queue, rend, nil, 24)
	if conn == nil {
		conn = transport.NewWebSocket(cfg.Connection.URL, cfg.Connection.Token, transport.Handler{
			Output:        sess.HandleOutput,
			StatusChanged: sess.HandleStatus,
			Error:         sess.HandleError,
		})
	}
	sess.SetConnection(conn)

	drag := input.NewDragScroller(mgr, sess, loop)
	sess.AttachDrag(drag)
	wheel := input.NewWheel(mgr, sess)

	fb := &feedbackState{}
	cb := gestureCallbacks(sess, mgr, drag, fb)
	rec := gesture.NewRecognizer(cfg.Gesture.Recognizer(), cb)

	return Model{
		cfg:    cfg,
		data:   data,
		mgr:    mgr,
		loop:   loop,
		queue:  queue,
		frames: frames,
		rend:   rend,
		sess:   sess,
		conn:   conn,
		wheel:  wheel,
		drag:   drag,
		rec:    rec,
		cb:     cb,
		fb:     fb,
		keys:   defaultViewerKeyMap(),
	}
}

// gestureCallbacks maps recognized gestures onto the pipeline.
func gestureCallbacks(sess *session.Session, mgr *scroll.Manager,
	drag *input.DragScroller, fb *feedbackState) gesture.Callbacks {
	scrollBy := func(dy float64) {
		if mgr.ScrollBy(dy, sess.BufferLength(), sess.Rows(), sess.LineHeight()) {
			sess.RequestRender()
		}
	}
	return gesture.Callbacks{
		DoubleTap: func(gesture.Point) {
			// Double tap jumps back to the live tail.
			maxY := scroll.MaxScrollPixels(sess.BufferLength(), sess.Rows(), sess.LineHeight())
			mgr.ScrollTo(maxY, sess.BufferLength(), sess.Rows(), sess.LineHeight())
			sess.RequestRender()
		},
		LongPress: func(gesture.Point) {
			mgr.SetLock(!mgr.LockEnabled())
			sess.RequestRender()
		},
		// Content tracks the finger: dragging down shows older rows.
		Scroll:          func(_, dy float64) { scrollBy(-dy) },
		ScrollEnd:       drag.LaunchMomentum,
		TwoFingerScroll: func(dy float64) { scrollBy(-dy) },
		Feedback:        func(text string) { fb.text = text },
	}
}

func (m Model) Init() tea.Cmd {
	conn := m.conn
	return tea.Batch(frameTick(), func() tea.Msg {
		if err := conn.Connect(context.Background()); err != nil {
			tuilog.Log.Error("connect failed", "error", err)
		}
		return nil
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		m.loop.Tick(now)
		m.sess.Tick(now)
		m.rec.Tick(now)
		return m, frameTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.sess.Resize(msg.Width, m.contentRows(), time.Now())
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseWheelMsg:
		lines := m.cfg.Scroll.WheelLines
		switch msg.Button {
		case tea.MouseWheelUp:
			m.scrollKeys(input.WheelEvent{DeltaY: -lines, Mode: input.ModeLine})
		case tea.MouseWheelDown:
			m.scrollKeys(input.WheelEvent{DeltaY: lines, Mode: input.ModeLine})
		}
		return m, nil

	case TouchStartMsg:
		m.rec.TouchStart(msg.Points, msg.Time)
		return m, nil
	case TouchMoveMsg:
		m.rec.TouchMove(msg.Points, msg.Time)
		return m, nil
	case TouchEndMsg:
		m.rec.TouchEnd(msg.Time)
		return m, nil
	case TouchCancelMsg:
		m.rec.TouchCancel()
		return m, nil

	case ConfigReloadedMsg:
		return m.applyConfig(msg.Cfg), nil
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		m.sess.Close()
		return m, tea.Quit
	}

	if m.insert {
		if msg.String() == "esc" {
			m.insert = false
			return m, nil
		}
		if data := keyBytes(msg.String()); data != nil {
			m.sess.SendInput(data)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.scrollKeys(input.WheelEvent{DeltaY: -1, Mode: input.ModeLine})
	case key.Matches(msg, m.keys.Down):
		m.scrollKeys(input.WheelEvent{DeltaY: 1, Mode: input.ModeLine})
	case key.Matches(msg, m.keys.PgUp):
		m.scrollKeys(input.WheelEvent{DeltaY: -1, Mode: input.ModePage})
	case key.Matches(msg, m.keys.PgDown):
		m.scrollKeys(input.WheelEvent{DeltaY: 1, Mode: input.ModePage})
	case key.Matches(msg, m.keys.Home):
		m.mgr.ScrollTo(0, m.sess.BufferLength(), m.sess.Rows(), m.sess.LineHeight())
		m.sess.RequestRender()
	case key.Matches(msg, m.keys.End):
		maxY := scroll.MaxScrollPixels(m.sess.BufferLength(), m.sess.Rows(), m.sess.LineHeight())
		m.mgr.ScrollTo(maxY, m.sess.BufferLength(), m.sess.Rows(), m.sess.LineHeight())
		m.sess.RequestRender()
	case key.Matches(msg, m.keys.Follow):
		m.mgr.SetFollow(!m.mgr.FollowEnabled())
		m.sess.RequestRender()
	case key.Matches(msg, m.keys.Lock):
		m.mgr.SetLock(!m.mgr.LockEnabled())
		m.sess.RequestRender()
	case key.Matches(msg, m.keys.Diag):
		m.cfg.Display.Diagnostics = !m.cfg.Display.Diagnostics
		m.rend.SetDiagnostics(m.cfg.Display.Diagnostics)
		m.sess.RequestRender()
	case key.Matches(msg, m.keys.Insert):
		m.insert = true
	case key.Matches(msg, m.keys.Quit):
		m.sess.Close()
		return m, tea.Quit
	}
	return m, nil
}

// scrollKeys applies a wheel event and schedules a repaint on movement.
func (m Model) scrollKeys(ev input.WheelEvent) {
	if m.wheel.Handle(ev) {
		m.sess.RequestRender()
	}
}

// applyConfig applies a reloaded configuration to the live pipeline.
func (m Model) applyConfig(cfg config.Config) Model {
	m.cfg = cfg
	m.data.SetMaxRows(cfg.Display.Scrollback)
	m.mgr.SetAtBottomTolerance(cfg.Scroll.AtBottomTolerance)
	m.rend.SetLineHeight(cfg.Display.LineHeight)
	m.rend.SetDiagnostics(cfg.Display.Diagnostics)
	m.rec = gesture.NewRecognizer(cfg.Gesture.Recognizer(), m.cb)
	m.sess.RequestRender()
	tuilog.Log.Info("configuration applied")
	return m
}

// contentRows is the terminal rows available for buffer content, with
// the bottom row reserved for the status line.
func (m Model) contentRows() int {
	if m.height <= 1 {
		return 1
	}
	return m.height - 1
}

func (m Model) View() tea.View {
	v := tea.NewView(m.viewContent())
	v.AltScreen = true
	return v
}

// viewContent builds the full screen string: content rows then the
// status line.
func (m Model) viewContent() string {
	if !m.ready {
		return "connecting…"
	}

	var b strings.Builder
	rows := m.contentRows()
	f, ok := m.frames.Latest()
	for i := 0; i < rows; i++ {
		if ok && i < len(f.Lines) {
			b.WriteString(f.Lines[i])
		}
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine(f, ok))
	return b.String()
}

// statusLine renders the bottom bar: connection state, follow/lock,
// insert marker, gesture feedback, and the diagnostics overlay.
func (m Model) statusLine(f render.Frame, ok bool) string {
	s := GetStyles()

	style := s.StatusBar
	if !m.sess.TransportStatus().Connected {
		style = s.StatusWarn
	}
	line := style.Render(m.sess.StatusText())

	if m.insert {
		line += " " + s.InsertMarker.Render("INSERT")
	}
	if m.fb.text != "" {
		line += " " + s.Feedback.Render(m.fb.text)
	}
	if ok && f.Overlay != "" {
		line += " " + s.DiagOverlay.Render(f.Overlay)
	}
	return line
}

// keyBytes maps a key name to the bytes sent to the remote terminal.
// Unmapped multi-rune names (function keys and the like) are dropped.
func keyBytes(name string) []byte {
	switch name {
	case "enter":
		return []byte("\r")
	case "tab":
		return []byte("\t")
	case "space":
		return []byte(" ")
	case "backspace":
		return []byte{0x7f}
	case "delete":
		return []byte("\x1b[3~")
	case "up":
		return []byte("\x1b[A")
	case "down":
		return []byte("\x1b[B")
	case "right":
		return []byte("\x1b[C")
	case "left":
		return []byte("\x1b[D")
	case "home":
		return []byte("\x1b[H")
	case "end":
		return []byte("\x1b[F")
	}
	if strings.HasPrefix(name, "ctrl+") && len(name) == len("ctrl+")+1 {
		c := name[len("ctrl+")]
		if c >= 'a' && c <= 'z' {
			return []byte{c - 'a' + 1}
		}
	}
	runes := []rune(name)
	if len(runes) == 1 {
		return []byte(string(runes))
	}
	return nil
}

//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Store owns the CLIPBOARD selection through a hidden window and answers
// selection requests from its current offers.
type x11Store struct {
	conn    *xgb.Conn
	window  xproto.Window
	atoms   atomSet
	mu      sync.RWMutex
	offered map[xproto.Atom][]byte
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	points    xproto.Atom
	property  xproto.Atom
}

func newStore() (store, error) {
	if err := requireDisplay(); err != nil {
		return nil, err
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	s, err := openX11Store(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	go s.eventLoop()
	return s, nil
}

func openX11Store(conn *xgb.Conn) (*x11Store, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	const eventMask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{eventMask}).Check()
	if err != nil {
		return nil, err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		return nil, err
	}
	return &x11Store{conn: conn, window: window, atoms: atoms}, nil
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{
		"CLIPBOARD",
		"TARGETS",
		"UTF8_STRING",
		"text/plain;charset=utf-8",
		"image/png",
		PointsMIME,
		"MASKPAINT_CLIPBOARD",
	}
	atoms := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atomSet{}, fmt.Errorf("intern %s: %w", name, err)
		}
		atoms[i] = reply.Atom
	}
	return atomSet{
		clipboard: atoms[0],
		targets:   atoms[1],
		utf8:      atoms[2],
		textPlain: atoms[3],
		png:       atoms[4],
		points:    atoms[5],
		property:  atoms[6],
	}, nil
}

// targetsFor lists the selection targets a format is served under. The
// first one is used when reading.
func (s *x11Store) targetsFor(f Format) []xproto.Atom {
	switch f {
	case FormatImage:
		return []xproto.Atom{s.atoms.png}
	case FormatPoints:
		return []xproto.Atom{s.atoms.points}
	}
	return []xproto.Atom{s.atoms.utf8, xproto.AtomString, s.atoms.textPlain}
}

func (s *x11Store) write(offers []offer) error {
	next := make(map[xproto.Atom][]byte)
	for _, o := range offers {
		data := append([]byte(nil), o.data...)
		for _, target := range s.targetsFor(o.format) {
			next[target] = data
		}
	}
	s.mu.Lock()
	s.offered = next
	s.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(s.conn, s.window, s.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (s *x11Store) read(f Format) ([]byte, error) {
	var lastErr error
	for _, target := range s.targetsFor(f) {
		data, err := s.readSelection(target)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *x11Store) eventLoop() {
	for {
		ev, err := s.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			s.answer(e)
		case xproto.SelectionClearEvent:
			s.mu.Lock()
			s.offered = nil
			s.mu.Unlock()
		}
	}
}

// answer serves one selection request and notifies the requestor. An
// unknown target is refused with property None.
func (s *x11Store) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	s.mu.RLock()
	data, ok := s.offered[e.Target]
	targets := make([]xproto.Atom, 0, len(s.offered)+1)
	targets = append(targets, s.atoms.targets)
	for t := range s.offered {
		targets = append(targets, t)
	}
	s.mu.RUnlock()

	switch {
	case e.Target == s.atoms.targets:
		buf := make([]byte, len(targets)*4)
		for i, t := range targets {
			xgb.Put32(buf[i*4:], uint32(t))
		}
		xproto.ChangeProperty(s.conn, xproto.PropModeReplace, e.Requestor, property, xproto.AtomAtom, 32, uint32(len(targets)), buf)
	case ok && len(data) > 0:
		typ := e.Target
		if typ == xproto.AtomString || typ == s.atoms.textPlain {
			typ = s.atoms.utf8
		}
		xproto.ChangeProperty(s.conn, xproto.PropModeReplace, e.Requestor, property, typ, 8, uint32(len(data)), data)
	default:
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(s.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// readSelection converts the selection to target on a throwaway
// connection, so reading our own selection does not block the event loop.
func (s *x11Store) readSelection(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, s.atoms.clipboard, target, s.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, fmt.Errorf("clipboard target unavailable")
		}
		reply, perr := xproto.GetProperty(conn, true, window, e.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}

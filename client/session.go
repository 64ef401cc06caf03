package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgeee/excuse-generator/api"
)

// DemoExcuseID marks fallback content. Reactions on it are not sent.
const DemoExcuseID = "demo"

// Backend is the part of the API a Session drives. *Client implements it.
type Backend interface {
	Generate(ctx context.Context, tone api.Tone, excuseType string) (GenerateResult, error)
	React(ctx context.Context, excuseID, typ string) (int, error)
}

// State is the generation state of a session.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateDisplayed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateDisplayed:
		return "displayed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// NoticeLevel classifies a notice for display.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// A Notice is a short message for the user, shown like a toast.
type Notice struct {
	Level NoticeLevel
	Text  string
}

const (
	msgSelectTone   = "Please select a tone first!"
	msgGenerated    = "Excuse generated!"
	msgGenerateFail = "Failed to generate excuse. Please try again."
	msgLiked        = "Excuse liked!"
	msgUnliked      = "Excuse unliked"
	msgCopied       = "Excuse copied to clipboard!"
	msgShared       = "Excuse shared!"
)

var milestones = map[int]string{
	5:  "Wow, 5 excuses already? You might need a real break!",
	10: "10 excuses?! Time to get back to work... or generate another one!",
}

// Displayed is the excuse currently on screen.
type Displayed struct {
	ID     string
	Excuse string
	Tips   string
}

// Demo reports whether the excuse is fallback content.
func (d Displayed) Demo() bool {
	return d.ID == "" || d.ID == DemoExcuseID
}

// A Reaction is a reaction to send to the server.
type Reaction struct {
	ExcuseID string
	Type     string
}

// Session is the client state machine. Its methods are not safe for
// concurrent use, except Request and Send which only read state fixed by
// Begin and the reaction methods.
type Session struct {
	backend Backend
	store   *Store

	tone       api.Tone
	excuseType string
	state      State
	current    Displayed
	hasCurrent bool

	// Fixed by Begin until Finish.
	reqTone api.Tone
	reqType string
}

func NewSession(backend Backend, store *Store) *Session {
	return &Session{
		backend: backend,
		store:   store,
	}
}

// SelectTone sets the tone for the next generation.
func (s *Session) SelectTone(t api.Tone) {
	s.tone = t
}

// SetExcuseType sets the optional category for the next generation.
func (s *Session) SetExcuseType(typ string) {
	s.excuseType = typ
}

func (s *Session) Tone() api.Tone { return s.tone }

func (s *Session) ExcuseType() string { return s.excuseType }

func (s *Session) State() State { return s.state }

// Current returns the displayed excuse, if any.
func (s *Session) Current() (Displayed, bool) {
	return s.current, s.hasCurrent
}

// Liked reports whether the displayed excuse is in the liked set.
func (s *Session) Liked() bool {
	if !s.hasCurrent || s.current.Demo() {
		return false
	}
	return s.store.Liked(s.current.ID)
}

// Generations returns the persisted generation counter.
func (s *Session) Generations() int {
	return s.store.Generations()
}

// Begin starts a generation. It returns false with a notice when no tone is
// selected, and false without one while a generation is in flight.
func (s *Session) Begin() (bool, []Notice) {
	if s.state == StateGenerating {
		return false, nil
	}
	if s.tone == "" {
		return false, []Notice{{Level: NoticeError, Text: msgSelectTone}}
	}
	s.reqTone = s.tone
	s.reqType = s.excuseType
	s.state = StateGenerating
	return true, nil
}

// Request performs the generation started by Begin.
func (s *Session) Request(ctx context.Context) (GenerateResult, error) {
	return s.backend.Generate(ctx, s.reqTone, s.reqType)
}

// Finish applies the outcome of Request and returns the notices to show.
func (s *Session) Finish(res GenerateResult, err error) []Notice {
	if s.state != StateGenerating {
		return nil
	}

	if err != nil {
		s.state = s.restState()
		msg := msgGenerateFail
		var re *ResponseError
		if errors.As(err, &re) && re.StatusCode < 500 && re.Message != "" {
			msg = re.Message
		}
		return []Notice{{Level: NoticeError, Text: msg}}
	}

	if res.Error != "" {
		notices := []Notice{{Level: NoticeError, Text: res.Error}}
		if res.Excuse != "" {
			s.show(Displayed{ID: DemoExcuseID, Excuse: res.Excuse, Tips: res.Tips})
		}
		s.state = s.restState()
		return notices
	}

	s.show(Displayed{ID: res.ExcuseID, Excuse: res.Excuse, Tips: res.Tips})
	s.state = StateDisplayed

	notices := []Notice{{Level: NoticeSuccess, Text: msgGenerated}}
	n, err := s.store.IncrementGenerations()
	if err != nil {
		notices = append(notices, Notice{Level: NoticeError, Text: fmt.Sprintf("Could not save progress: %v", err)})
	}
	if m, ok := milestones[n]; ok {
		notices = append(notices, Notice{Level: NoticeInfo, Text: m})
	}
	return notices
}

// Generate runs Begin, Request and Finish in sequence.
func (s *Session) Generate(ctx context.Context) []Notice {
	ok, notices := s.Begin()
	if !ok {
		return notices
	}
	res, err := s.Request(ctx)
	return s.Finish(res, err)
}

func (s *Session) show(d Displayed) {
	s.current = d
	s.hasCurrent = true
}

// restState is idle, or displayed when fallback content is on screen.
func (s *Session) restState() State {
	if s.hasCurrent && s.current.Demo() {
		return StateDisplayed
	}
	return StateIdle
}

func (s *Session) reactable() bool {
	return s.hasCurrent && !s.current.Demo()
}

// ToggleLike flips the liked flag of the displayed excuse. The returned
// reaction is like or unlike to match. ok is false when there is nothing to
// react to.
func (s *Session) ToggleLike() (r Reaction, ok bool, notices []Notice) {
	if !s.reactable() {
		return Reaction{}, false, nil
	}
	liked := !s.store.Liked(s.current.ID)
	if err := s.store.SetLiked(s.current.ID, liked); err != nil {
		notices = append(notices, Notice{Level: NoticeError, Text: fmt.Sprintf("Could not save like: %v", err)})
	}
	if liked {
		return Reaction{ExcuseID: s.current.ID, Type: "like"}, true, append(notices, Notice{Level: NoticeSuccess, Text: msgLiked})
	}
	return Reaction{ExcuseID: s.current.ID, Type: "unlike"}, true, append(notices, Notice{Level: NoticeSuccess, Text: msgUnliked})
}

// Share returns the share reaction for the displayed excuse.
func (s *Session) Share() (Reaction, bool, []Notice) {
	if !s.reactable() {
		return Reaction{}, false, nil
	}
	return Reaction{ExcuseID: s.current.ID, Type: "share"}, true, []Notice{{Level: NoticeSuccess, Text: msgShared}}
}

// Copy returns the copy reaction for the displayed excuse. The caller puts
// the text on the clipboard.
func (s *Session) Copy() (Reaction, bool, []Notice) {
	if !s.reactable() {
		return Reaction{}, false, nil
	}
	return Reaction{ExcuseID: s.current.ID, Type: "copy"}, true, []Notice{{Level: NoticeSuccess, Text: msgCopied}}
}

// Send delivers a reaction and returns the new counter value.
func (s *Session) Send(ctx context.Context, r Reaction) (int, error) {
	n, err := s.backend.React(ctx, r.ExcuseID, r.Type)
	if err != nil {
		return 0, fmt.Errorf("send %s reaction: %w", r.Type, err)
	}
	return n, nil
}

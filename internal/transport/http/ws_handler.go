package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizflow/internal/app"
	"quizflow/internal/auth"
	"quizflow/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
	// HomePath is where participants are sent after finishing or being turned away.
	HomePath = "/"
)

// WSHandler runs one exam session per websocket connection.
type WSHandler struct {
	exams    *app.ExamService
	sessions app.SessionRepository
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewWSHandler(exams *app.ExamService, sessions app.SessionRepository, verifier *auth.Verifier) *WSHandler {
	return &WSHandler{
		exams:    exams,
		sessions: sessions,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsSession serialises every write to the connection through one goroutine.
type wsSession struct {
	conn *websocket.Conn
	out  chan outboundMessage
	done chan struct{}
}

func (s *wsSession) push(msg outboundMessage) {
	select {
	case s.out <- msg:
	case <-s.done:
	}
}

func (s *wsSession) pushError(err error) {
	s.push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
}

// writeLoop stops after a redirect: the participant is done with this page.
func (s *wsSession) writeLoop(writerDone chan<- struct{}) {
	defer close(writerDone)
	// a dead writer must also end the read loop
	defer s.conn.Close()
	for {
		select {
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				glog.V(2).Infof("ws write error: %v", err)
				return
			}
			if msg.Type == "redirect" {
				_ = s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "redirect"),
					time.Now().Add(writeWait))
				return
			}
		case <-s.done:
			return
		}
	}
}

type sessionNotifier struct{ s *wsSession }

func (n sessionNotifier) Notify(_ context.Context, notice domain.Notice) {
	severity := notice.Severity
	if severity == "" {
		severity = domain.SeverityDefault
	}
	n.s.push(outboundMessage{Type: "toast", Payload: toastPayload{
		Title:       notice.Title,
		Description: notice.Description,
		Severity:    severity,
		DurationMS:  notice.Duration.Milliseconds(),
	}})
}

// ServeWS upgrades GET /ws/exam?quiz={id}&token={jwt} and drives the exam over the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	who, err := h.verifier.Resolve(r)
	if err != nil {
		http.Error(w, "bad token", http.StatusUnauthorized)
		return
	}
	quizID := r.URL.Query().Get("quiz")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := &wsSession{
		conn: conn,
		out:  make(chan outboundMessage, sendBuffer),
		done: make(chan struct{}),
	}
	writerDone := make(chan struct{})
	go sess.writeLoop(writerDone)

	ctx := r.Context()
	ctrl, quiz, err := h.exams.Open(ctx, quizID, who, app.Hooks{
		Notifier: sessionNotifier{sess},
		OnTick: func(remaining int) {
			sess.push(outboundMessage{Type: "countdown", Payload: countdownPayload{Remaining: remaining}})
		},
		OnRedirect: func() {
			sess.push(outboundMessage{Type: "redirect", Payload: redirectPayload{To: HomePath}})
		},
	})
	if err != nil {
		sess.pushError(err)
		sess.push(outboundMessage{Type: "redirect", Payload: redirectPayload{To: HomePath}})
		<-writerDone
		close(sess.done)
		return
	}

	sessionID := uuid.NewString()
	h.sessions.Register(sessionID, ctrl)
	glog.V(1).Infof("session %s opened for quiz %s", sessionID, quizID)

	sess.push(outboundMessage{Type: "quiz", Payload: newQuizView(quiz, ctrl.Items())})
	sess.push(outboundMessage{Type: "state", Payload: newState(ctrl)})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(ctx, sess, ctrl, inbound)
	}

	// unblock hooks before stopping the countdown, which may be pushing
	close(sess.done)
	ctrl.Close()
	h.sessions.Remove(sessionID)
	<-writerDone
	glog.V(1).Infof("session %s closed", sessionID)
}

func (h *WSHandler) dispatch(ctx context.Context, sess *wsSession, ctrl *app.Controller, in inboundMessage) {
	switch in.Type {
	case "name":
		var p namePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			sess.pushError(errors.New("invalid name payload"))
			return
		}
		if err := ctrl.SetParticipant(ctx, p.Name); err != nil && !errors.Is(err, domain.ErrAlreadyCompleted) {
			sess.pushError(err)
		}

	case "start":
		// refusals are either silent or already reported as a toast
		_ = ctrl.Start(ctx)

	case "answer":
		var p answerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			sess.pushError(errors.New("invalid answer payload"))
			return
		}
		answer, err := p.answer()
		if err == nil {
			err = ctrl.Record(p.QuestionID, answer)
		}
		if err != nil {
			sess.pushError(err)
			return
		}

	case "toggle":
		var p togglePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			sess.pushError(errors.New("invalid toggle payload"))
			return
		}
		if err := ctrl.SetOption(p.QuestionID, p.OptionID, p.Checked); err != nil {
			sess.pushError(err)
			return
		}

	case "submit":
		res, err := ctrl.Submit(ctx)
		if err != nil {
			// already reported as a toast; answers stay editable
			break
		}
		if res != nil {
			sess.push(outboundMessage{Type: "result", Payload: res})
		}

	default:
		sess.pushError(errors.New("unsupported message type"))
		return
	}
	sess.push(outboundMessage{Type: "state", Payload: newState(ctrl)})
}

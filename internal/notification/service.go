// Package notification shows transient, dismissible inline alerts next to
// the control that triggered them.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/example/ec-storefront/internal/dom"
	"github.com/example/ec-storefront/internal/ui"
)

// DismissAfter is how long a notification stays on the page.
const DismissAfter = 3000 * time.Millisecond

// Severity selects the alert style.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

func (s Severity) valid() bool {
	switch s {
	case SeveritySuccess, SeverityWarning, SeverityDanger:
		return true
	}
	return false
}

// Notification is one alert on the page.
type Notification struct {
	ID        string
	Message   string
	Severity  Severity
	Container *goquery.Selection

	element   *html.Node
	timer     ui.Timer
	dismissed bool
	svc       *Service
}

// Element returns the alert element.
func (n *Notification) Element() *goquery.Selection {
	return dom.Wrap(n.element)
}

// Dismissed reports whether the alert is gone.
func (n *Notification) Dismissed() bool {
	return n.dismissed
}

// Dismiss removes the alert and cancels its pending expiry. It reports false
// if the alert was already dismissed.
func (n *Notification) Dismiss() bool {
	if n.dismissed {
		return false
	}
	n.dismissed = true
	if n.timer != nil {
		n.timer.Stop()
	}
	if n.element.Parent != nil {
		n.element.Parent.RemoveChild(n.element)
	}
	n.svc.page.RemoveEventListeners(dom.Wrap(n.element))
	n.svc.forget(n)
	return true
}

// Service creates notifications. It must be used from the UI loop.
type Service struct {
	page      *dom.Page
	scheduler ui.Scheduler
	logger    *zap.Logger
	active    []*Notification
}

// NewService creates a notification service for page. A nil scheduler
// leaves the service without dismissal machinery: messages then only reach
// the log.
func NewService(page *dom.Page, scheduler ui.Scheduler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		page:      page,
		scheduler: scheduler,
		logger:    logger.Named("notification"),
	}
	if page != nil {
		page.OnRemove(s.containerRemoved)
	}
	return s
}

// Show appends an alert to container and schedules its dismissal. When the
// alert cannot be shown the message is logged instead and Show returns nil.
func (s *Service) Show(container *goquery.Selection, message string, severity Severity) (n *Notification) {
	defer func() {
		if r := recover(); r != nil {
			s.fallback(message, severity, fmt.Errorf("panic: %v", r))
			n = nil
		}
	}()

	if !severity.valid() {
		severity = SeveritySuccess
	}
	if s.page == nil || s.scheduler == nil {
		s.fallback(message, severity, fmt.Errorf("dismissal machinery unavailable"))
		return nil
	}
	if container == nil || container.Length() == 0 {
		s.fallback(message, severity, fmt.Errorf("no container"))
		return nil
	}

	n = &Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  severity,
		Container: container.First(),
		svc:       s,
	}
	n.element = s.build(n)
	n.timer = s.scheduler.AfterFunc(DismissAfter, func() { n.Dismiss() })
	n.Container.AppendNodes(n.element)

	closeButton := dom.Wrap(n.element).Find("button.btn-close")
	s.page.AddEventListener(closeButton, dom.EventClick, func(_ context.Context, e *dom.Event) {
		e.PreventDefault()
		n.Dismiss()
	})

	s.active = append(s.active, n)
	return n
}

// Active returns the notifications currently on the page, oldest first.
func (s *Service) Active() []*Notification {
	return append([]*Notification(nil), s.active...)
}

func (s *Service) build(n *Notification) *html.Node {
	div := dom.Element("div",
		dom.Attr("class", "alert alert-"+string(n.Severity)+" alert-dismissible fade show mt-2"),
		dom.Attr("role", "alert"),
		dom.Attr("data-notification-id", n.ID),
	)
	div.AppendChild(dom.Text(n.Message))
	div.AppendChild(dom.Element("button",
		dom.Attr("type", "button"),
		dom.Attr("class", "btn-close"),
		dom.Attr("data-bs-dismiss", "alert"),
		dom.Attr("aria-label", "Close"),
	))
	return div
}

func (s *Service) fallback(message string, severity Severity, reason error) {
	s.logger.Info(message,
		zap.String("severity", string(severity)),
		zap.NamedError("reason", reason),
	)
}

func (s *Service) forget(n *Notification) {
	for i, it := range s.active {
		if it == n {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}

// containerRemoved dismisses notifications whose container left the page.
func (s *Service) containerRemoved(removed []*html.Node) {
	for _, n := range s.Active() {
		for _, root := range removed {
			if dom.Contains(root, n.element) {
				n.Dismiss()
				break
			}
		}
	}
}

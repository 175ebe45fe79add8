// Package sse implements a Server-Sent Events broker for live record updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeSemesterSaved   = "semester.saved"
	TypeSemesterDeleted = "semester.deleted"
	TypeSummaryUpdated  = "summary.updated"
	TypeCatalogReloaded = "catalog.reloaded"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SemesterChange is the payload of semester.saved and semester.deleted.
type SemesterChange struct {
	Semester string  `json:"semester"`
	GPA      float64 `json:"gpa,omitempty"`
	Checksum string  `json:"checksum,omitempty"`
}

// Summary is the payload of summary.updated. CGPA is nil when no semester
// is stored.
type Summary struct {
	CGPA         *float64 `json:"cgpa"`
	TotalCredits float64  `json:"total_credits"`
	Semesters    int      `json:"semesters"`
}

type recordEventReq struct {
	kind    string
	change  SemesterChange
	summary func() Summary
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal loop owns the client set and the summary throttle
// timestamp. Public methods talk to the loop over channels.
type Broker struct {
	summaryMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	recordEventCh chan recordEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits summary.updated at most once per
// summaryThrottle.
func NewBroker(summaryThrottle time.Duration) *Broker {
	if summaryThrottle <= 0 {
		summaryThrottle = 2 * time.Second
	}

	b := &Broker{
		summaryMin:    summaryThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		recordEventCh: make(chan recordEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastSummary time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.recordEventCh:
			switch req.kind {
			case "saved":
				broadcast(Event{Type: TypeSemesterSaved, Data: req.change})
			case "deleted":
				broadcast(Event{Type: TypeSemesterDeleted, Data: req.change})
			}

			now := time.Now()
			if req.summary != nil && now.Sub(lastSummary) >= b.summaryMin {
				lastSummary = now
				broadcast(Event{Type: TypeSummaryUpdated, Data: req.summary()})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishSemesterSaved announces a stored record. summary is evaluated only
// when the throttled summary.updated event is due; it may be nil.
func (b *Broker) PublishSemesterSaved(change SemesterChange, summary func() Summary) {
	b.publishRecord(recordEventReq{kind: "saved", change: change, summary: summary})
}

// PublishSemesterDeleted announces a removed record.
func (b *Broker) PublishSemesterDeleted(semester string, summary func() Summary) {
	b.publishRecord(recordEventReq{kind: "deleted", change: SemesterChange{Semester: semester}, summary: summary})
}

// PublishCatalogReloaded announces that the module catalog file changed.
func (b *Broker) PublishCatalogReloaded(modules int) {
	b.Publish(Event{Type: TypeCatalogReloaded, Data: map[string]int{"modules": modules}})
}

func (b *Broker) publishRecord(req recordEventReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.recordEventCh <- req:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

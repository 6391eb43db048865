package server

import (
	"sync"
	"time"

	"pathgrid/models"

	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"
)

// ExtentUpdate describes one walkability edit and the grid's extents right after it.
type ExtentUpdate struct {
	ID       string         `json:"id"`
	Pos      models.GridPos `json:"pos"`
	Walkable bool           `json:"walkable"`
	Width    int            `json:"width"`
	Length   int            `json:"length"`
	Height   int            `json:"height"`
}

func newExtentUpdate(pos models.GridPos, walkable bool, ext Extents) ExtentUpdate {
	return ExtentUpdate{
		ID:       uuid.NewString(),
		Pos:      pos,
		Walkable: walkable,
		Width:    ext.Width,
		Length:   ext.Length,
		Height:   ext.Height,
	}
}

// subscriberBuffer is how many updates a slow subscriber may fall behind before
// updates to it are dropped.
const subscriberBuffer = 256

// hub fans updates out to every subscribed websocket. Publishing never blocks
// the handler that made the edit.
type hub struct {
	mu   sync.Mutex
	subs map[chan ExtentUpdate]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan ExtentUpdate]struct{}{}}
}

func (h *hub) subscribe() chan ExtentUpdate {
	ch := make(chan ExtentUpdate, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan ExtentUpdate) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *hub) publish(update ExtentUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

// batchify collects updates over @rate before sending them, keeping only the latest
// update per cell within a batch, ordered by arrival so the last item carries the
// newest extents. A pending batch is flushed on the next tick even if nothing else arrives.
func batchify(
	done <-chan struct{},
	source <-chan ExtentUpdate,
	rate time.Duration,
) <-chan []ExtentUpdate {
	output := make(chan []ExtentUpdate)

	go func() {
		defer close(output)

		pending := map[models.GridPos]ExtentUpdate{}
		order := []models.GridPos{}
		ticker := channerics.NewTicker(done, rate)
		for {
			select {
			case <-done:
				return
			case update, ok := <-source:
				if !ok {
					return
				}
				if _, seen := pending[update.Pos]; seen {
					order = removePos(order, update.Pos)
				}
				order = append(order, update.Pos)
				pending[update.Pos] = update
			case <-ticker:
				if len(order) == 0 {
					continue
				}
				batch := make([]ExtentUpdate, 0, len(order))
				for _, pos := range order {
					batch = append(batch, pending[pos])
				}
				select {
				case output <- batch:
				case <-done:
					return
				}
				pending = map[models.GridPos]ExtentUpdate{}
				order = order[:0]
			}
		}
	}()

	return output
}

func removePos(order []models.GridPos, pos models.GridPos) []models.GridPos {
	for i := range order {
		if order[i] == pos {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

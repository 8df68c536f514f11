package hal

import (
	"sync"
	"sync/atomic"
)

// Transferer performs one bus transaction synchronously.
type Transferer interface {
	Transfer(req *BusRequest)
}

// BusStats counts completed transactions.
type BusStats struct {
	Transactions uint64
	BytesOut     uint64
	BytesIn      uint64
}

// AsyncBus runs transfers on a dedicated goroutine and reports completion
// from there, the way a DMA interrupt would on hardware.
type AsyncBus struct {
	t    Transferer
	ch   chan *BusRequest
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	transactions atomic.Uint64
	bytesOut     atomic.Uint64
	bytesIn      atomic.Uint64
}

// NewAsyncBus starts the bus goroutine. Call Close to stop it.
func NewAsyncBus(t Transferer) *AsyncBus {
	b := &AsyncBus{
		t:    t,
		ch:   make(chan *BusRequest, 1),
		done: make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

func (b *AsyncBus) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case req := <-b.ch:
			b.t.Transfer(req)
			b.transactions.Add(1)
			b.bytesOut.Add(uint64(req.CmdLen) + uint64(req.OutLen()))
			b.bytesIn.Add(uint64(len(req.In)))
			if req.Callback != nil {
				req.Callback(req)
			}
		}
	}
}

func (b *AsyncBus) Execute(req *BusRequest) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ch <- req:
		return true
	default:
		return false
	}
}

// Stats returns the transaction counters.
func (b *AsyncBus) Stats() BusStats {
	return BusStats{
		Transactions: b.transactions.Load(),
		BytesOut:     b.bytesOut.Load(),
		BytesIn:      b.bytesIn.Load(),
	}
}

// Close stops the bus goroutine after the transaction in flight. It must
// not be called from a request callback.
func (b *AsyncBus) Close() {
	b.once.Do(func() { close(b.done) })
	b.wg.Wait()
}

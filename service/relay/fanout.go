package relay

import (
	"sync"

	"RelayGate/logger"
	"RelayGate/metrics"
)

type fanoutJob struct {
	clients []*Client
	payload []byte
}

// Fanout delivers one payload to many clients through a small worker pool,
// keeping room broadcasts off the reader goroutine. Deliveries are
// independent: a failed enqueue to one member never stops the rest.
type Fanout struct {
	jobs     chan fanoutJob
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 256
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	f.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer f.wg.Done()
			for job := range f.jobs {
				deliverAll(job.clients, job.payload)
			}
		}()
	}
	return f
}

func deliverAll(clients []*Client, payload []byte) {
	for _, c := range clients {
		if err := c.Enqueue(payload); err != nil {
			metrics.DeliveryFailures.Inc()
			logger.Debugf("[fanout] drop conn=%s err=%v", c.ConnID, err)
			continue
		}
		metrics.Deliveries.Inc()
	}
}

// Broadcast queues a delivery job. When the pool's queue is full the job is
// delivered inline rather than dropped wholesale.
func (f *Fanout) Broadcast(clients []*Client, payload []byte) {
	if len(clients) == 0 || len(payload) == 0 {
		return
	}
	select {
	case f.jobs <- fanoutJob{clients: clients, payload: payload}:
	default:
		deliverAll(clients, payload)
	}
}

// Close drains the workers. Pending jobs are still delivered.
func (f *Fanout) Close() {
	f.stopOnce.Do(func() { close(f.jobs) })
	f.wg.Wait()
}

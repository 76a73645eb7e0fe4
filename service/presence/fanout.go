package presence

import "sync"

// Fanout spreads one status payload across many connection send queues
// without letting a single slow client stall the broadcast path. Presence
// is advisory: a slow client loses the frame, the next edge event
// supersedes whatever was dropped.
type Fanout struct {
	jobs chan fanoutJob
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 256
	}
	f := &Fanout{
		jobs: make(chan fanoutJob, queue),
		stop: make(chan struct{}),
	}
	f.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go f.worker()
	}
	return f
}

func (f *Fanout) worker() {
	defer f.wg.Done()
	for {
		select {
		case <-f.stop:
			return
		case job := <-f.jobs:
			for _, c := range job.conns {
				select {
				case <-c.Done():
					// 连接已注销，投递没有意义
				case c.Send <- job.payload:
				default:
					// 队列满：丢帧，下一次事件会补上最新状态
				}
			}
		}
	}
}

// Broadcast queues one delivery round; a no-op after Close and when the
// job queue itself is saturated.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	select {
	case <-f.stop:
	case f.jobs <- fanoutJob{conns: conns, payload: payload}:
	default:
	}
}

// Close stops the workers and waits for them to exit. Queued but
// undelivered rounds are discarded.
func (f *Fanout) Close() {
	f.once.Do(func() { close(f.stop) })
	f.wg.Wait()
}

package cpu

// queueObj executes tasks one at a time, in submission order, on a dedicated
// goroutine. That gives the software driver the same in-order semantics as an
// OpenCL command queue created without out-of-order execution.
type queueObj struct {
	tasks chan func()
}

func newQueue() *queueObj {
	q := &queueObj{tasks: make(chan func(), 64)}
	go q.run()
	return q
}

func (q *queueObj) run() {
	for task := range q.tasks {
		task()
	}
}

func (q *queueObj) submit(task func()) {
	q.tasks <- task
}

func (q *queueObj) submitAndWait(task func()) {
	done := make(chan struct{})
	q.tasks <- func() {
		task()
		close(done)
	}
	<-done
}

// finish blocks until every task submitted before the call has executed.
func (q *queueObj) finish() {
	q.submitAndWait(func() {})
}

// shutdown drains the queue and stops its goroutine. The queue must not be
// used afterwards.
func (q *queueObj) shutdown() {
	q.finish()
	close(q.tasks)
}

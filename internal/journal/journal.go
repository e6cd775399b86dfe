package journal

// Journal ties the ring, broker, and optional disk writer together behind a
// single Record call.
type Journal struct {
	ring   *Ring
	broker *Broker
	writer *LineWriter
}

// New builds a journal keeping capacity entries in memory. writer may be nil
// when the on-disk trail is disabled.
func New(capacity int, writer *LineWriter) *Journal {
	return &Journal{
		ring:   NewRing(capacity),
		broker: NewBroker(),
		writer: writer,
	}
}

// Record stores the entry, streams it to subscribers, and queues it for the
// disk trail. A full disk buffer drops the entry; the in-memory copies are
// already placed by then.
func (j *Journal) Record(e Entry) {
	j.ring.Add(e)
	j.broker.Publish(e)
	if j.writer != nil {
		_ = j.writer.Write(e)
	}
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(n int) []Entry {
	return j.ring.Recent(n)
}

// Subscribe attaches a live stream client.
func (j *Journal) Subscribe() (int64, <-chan Entry) {
	return j.broker.Subscribe()
}

// Unsubscribe detaches a live stream client.
func (j *Journal) Unsubscribe(id int64) {
	j.broker.Unsubscribe(id)
}

// ClientCount reports the number of attached stream clients.
func (j *Journal) ClientCount() int {
	return j.broker.ClientCount()
}

// Close flushes the disk trail.
func (j *Journal) Close() error {
	if j.writer != nil {
		return j.writer.Close()
	}
	return nil
}

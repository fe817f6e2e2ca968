// Package mailqueue implements the outbound mail subsystem described in
// spec.md §4.10: a resumable SMTP client state machine, a sendmail(8)
// pipe fallback, and a prohibited-address banlist. Neither backend's Send
// consults the banlist.
// Grounded throughout on original_source/src/mail-common.c,
// mail-smtp.c, and mail-sendmail.c.
package mailqueue

// PendingMail is one queued outbound message, grounded on mail-smtp.c's
// struct pending_mail.
type PendingMail struct {
	From      string // sending service nick
	ToName    string // recipient account handle
	ToEmail   string
	Subject   string
	Body      string
	FirstTime bool // true for a first-contact message (e.g. registration)
}

// Queue is the FIFO of outbound mail awaiting an SMTP transaction,
// grounded on mail-smtp.c's DECLARE_LIST(mail_queue, ...).
type Queue struct {
	items []*PendingMail
}

// Append adds m to the back of the queue.
func (q *Queue) Append(m *PendingMail) {
	q.items = append(q.items, m)
}

// Front returns the oldest queued message, or nil if the queue is empty.
func (q *Queue) Front() *PendingMail {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Remove drops m from the queue, wherever it is (mail_queue_remove finds
// it by pointer identity; there is normally only ever one in flight).
func (q *Queue) Remove(m *PendingMail) {
	for i, item := range q.items {
		if item == m {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Len reports how many messages are queued.
func (q *Queue) Len() int { return len(q.items) }

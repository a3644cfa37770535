package main

// SubscriberCount reports how many event subscribers are attached.
func (r *Runner) SubscriberCount() int {
	return r.pubsub.Len()
}

package simulator

// Sample is one streaming input: a feature vector plus its supervision
// signal (label for classification, target for regression; novelty ignores
// both).
type Sample struct {
	X      []float32
	Label  bool
	Target float32
}

// sampleQueue is a simple FIFO staging the workload ahead of the engine. It
// keeps the generation and consumption sides decoupled so future work can
// attach replay or live sources without touching the cycle loop.
type sampleQueue struct {
	items []*Sample
}

func (this *sampleQueue) enqueue(sample *Sample) {
	this.items = append(this.items, sample)
}

func (this *sampleQueue) dequeue() (*Sample, bool) {
	if len(this.items) == 0 {
		return nil, false
	}

	sample := this.items[0]
	this.items[0] = nil
	this.items = this.items[1:]

	return sample, true
}

func (this *sampleQueue) isEmpty() bool {
	return len(this.items) == 0
}

package storage

// Outcome is what happened to one event handed to a Sink.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeSkipped means the seen-cache already knew the content hash and
	// the backing store was not contacted.
	OutcomeSkipped Outcome = "skipped"
)

// PersistStats aggregates outcomes of one persistence pass.
type PersistStats struct {
	Inserted   int
	Duplicates int
	Skipped    int
	Failed     int
}

func (s *PersistStats) Add(o Outcome) {
	switch o {
	case OutcomeInserted:
		s.Inserted++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeSkipped:
		s.Skipped++
	}
}

package db

import "time"

// Corpus is the bookkeeping row for one built (or partially built) model.
type Corpus struct {
	ID        int64
	Name      string
	PairCount int64
	// LastProcessedDocument is the index of the last ingested document, -1 if none.
	LastProcessedDocument int
	Complete              bool
	BuiltAt               time.Time
}

// Pronunciation is one dictionary pronunciation of a word.
type Pronunciation struct {
	Word      string
	Variant   int
	Phones    string
	Stresses  string
	RhymePart string
}

// Poem is a saved composition.
type Poem struct {
	ID        string
	Form      string
	Corpus    string
	Body      string
	CreatedAt time.Time
}

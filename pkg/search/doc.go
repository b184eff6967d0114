// Package search builds lines of verse that fit a meter exactly by walking a
// word adjacency model.
//
// A line grows from a seed word, forward (appending followers) or backward
// (prepending predecessors). At every step the candidates adjacent to the open
// end are classified by the meter matcher, the exact and lenient buckets are
// shuffled independently, and the first entry of exact followed by lenient is
// placed. A line is returned only when its stress covers the meter exactly.
//
// Two strategies are available. SinglePath commits to the first entry at every
// step and reports ErrSearchExhausted as soon as a step has no candidate; the
// caller is expected to retry with a new seed. Backtrack tries the remaining
// entries, in the same shuffled order, before giving up.
//
// HasPathToRhyme is an exhaustive existence check: it returns true only if some
// sequence of meter-valid adjacent words completes the line with a rhyme of the
// target, and false only after every candidate has been tried.
package search

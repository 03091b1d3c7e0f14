// Package ai (Artificial Intelligence) defines the interfaces the models used to play Othello have to implement.
package ai

// ActionScorer scores every cell of the board as the next move, given the board features
// (see package features) from the point of view of the player about to move.
//
// Higher scores mean more desirable moves. It doesn't know about legality: that is handled
// by the policy using the scores.
type ActionScorer interface {
	// ActionScores returns one score per board cell, in row-major order.
	ActionScores(features []float32) []float32

	// String returns a short description of the model.
	String() string
}

// ActionLearner is an ActionScorer that can be trained.
type ActionLearner interface {
	ActionScorer

	// Learn takes one gradient descent step towards making ActionScores(features) closer to targets.
	Learn(features, targets []float32)
}

// Snapshotter is implemented by models that can't evaluate concurrently: Snapshot returns an independent
// copy of the current model, to be used by one goroutine.
type Snapshotter interface {
	Snapshot() ActionScorer
}

// Saver is implemented by models that can be saved to where they were loaded from.
type Saver interface {
	Save() error
}

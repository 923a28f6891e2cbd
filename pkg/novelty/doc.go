// Package novelty scores a stream of log lines for novelty against a
// decayed statistical model of what the stream has seen so far.
//
// Quick start:
//
//	n, err := novelty.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := n.ScoreAndObserve("connection refused to db-primary:5432")
//	fmt.Println(result.Novelty, result.Template)
//
// The Detector is safe for concurrent use only when wrapped by a caller-held
// mutex (see internal/httpserver for the reference server-side wrapper);
// the underlying engine itself is single-threaded cooperative.
package novelty

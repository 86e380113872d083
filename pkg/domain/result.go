package domain

// RunResult is what one workflow invocation returns: the full transcript
// as of the end of the run plus the final report, when one was produced.
// An empty FinalReport does not mean failure; the classifier decides what
// the run meant.
type RunResult struct {
	Messages    History `json:"messages"`
	FinalReport string  `json:"final_report,omitempty"`
}

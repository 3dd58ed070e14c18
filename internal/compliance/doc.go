// Package compliance compares a task's staged deliverable with its
// submitted one against the task's unmet feedback criteria.
//
// The comparison itself is delegated to a Classifier, usually a generative
// model behind an HTTP API. The Evaluator owns everything around that call:
// it checks preconditions on a consistent snapshot and bounds the call with
// a timeout and retries. It also verifies that the classifier answered for
// exactly the criteria it was asked about, and writes the verdicts in one
// transaction. A classifier answer that drops or invents a criterion aborts
// the evaluation with nothing written.
package compliance

// Package log provides secure logging functionality built on top of the
// standard slog package.
//
// The SecureHandler keeps two kinds of data out of log output:
//   - credentials, such as the classifier API key, bearer tokens and
//     Redis passwords, detected by attribute key or by value pattern;
//   - document bodies, which are replaced by their size so that a stray
//     "content" attribute never dumps a student's thesis into the logs.
//
// Even in verbose mode, sensitive values are masked.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("calling classifier",
//	    "api_key", cfg.Classifier.APIKey, // logged as ***REDACTED***
//	    "content", deliverable.Content,   // logged as "<48213 bytes>"
//	)
package log

// Package classifier talks to an OpenAI-compatible chat completions endpoint.
//
// Client implements compliance.Classifier and locator.PageLocator. Documents
// are attached as base64 file parts and the model is asked for JSON matching
// a fixed schema. Output that cannot be decoded is returned as an empty
// result; callers decide whether an empty answer breaks their contract.
package classifier

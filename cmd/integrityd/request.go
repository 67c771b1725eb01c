package main

import (
	"encoding/json"

	"integrityd/internal/actionlog"
	"integrityd/internal/engine"
)

// buildRequest decodes the raw action arrays of a session file into an
// engine request.
func buildRequest(actions, reference json.RawMessage, text, submissionID string) (engine.Request, error) {
	log, err := actionlog.Decode(actions)
	if err != nil {
		return engine.Request{}, err
	}

	var ref actionlog.Log
	if len(reference) > 0 {
		ref, err = actionlog.Decode(reference)
		if err != nil {
			return engine.Request{}, err
		}
	}

	return engine.Request{
		Actions:          log,
		ReferenceActions: ref,
		TextContent:      text,
		SubmissionID:     submissionID,
	}, nil
}

package entity

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Result is the outcome of processing one uploaded orders file.
type Result struct {

	// Location of the input object
	Input Location

	// Key of the written output artifact, empty if the pipeline failed before publishing
	OutputKey string

	Orders int
	Rows   int

	// The stage reached when the run ended. StageDone if all stages succeeded.
	Stage Stage

	// Set if the run was ended by a pre-transform hook without producing output
	Skipped bool

	Error error
}

func (r Result) String() string {
	return fmt.Sprintf("input: %s, output: %s, orders: %d, rows: %d, stage: %s, skipped: %v, err: %v",
		r.Input, r.OutputKey, r.Orders, r.Rows, r.Stage, r.Skipped, r.Error)
}

// Response is the invocation result returned to the Lambda runtime.
// Body holds a JSON encoded string message.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func NewResponse(statusCode int, message string) Response {
	body, err := json.Marshal(message)
	if err != nil {
		body = []byte(`""`)
	}
	return Response{StatusCode: statusCode, Body: string(body)}
}

// Message returns the decoded body message.
func (r Response) Message() string {
	var msg string
	if err := json.Unmarshal([]byte(r.Body), &msg); err != nil {
		return r.Body
	}
	return msg
}

func (r Response) Success() bool {
	return r.StatusCode == http.StatusOK
}

// ResponseFromResult maps a Result to the response convention of the function:
// 200 for success (including skipped input) and 500 for any failure.
func ResponseFromResult(r Result) Response {
	if r.Error != nil {
		return NewResponse(http.StatusInternalServerError, fmt.Sprintf("Error processing file: %v", r.Error))
	}
	if r.Skipped {
		return NewResponse(http.StatusOK, fmt.Sprintf("Skipped processing for %s", r.Input.Key))
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Processing complete for %s", r.Input.Key))
}

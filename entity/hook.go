package entity

import "context"

type HookAction int

const (
	HookActionInvalid          HookAction = iota // default, not to be used
	HookActionProceed                            // continue processing of this file
	HookActionSkip                               // end processing with success, without writing output
	HookActionUnretryableError                   // end processing with failure
)

// PreTransformHookFunc is a client-provided function which the pipeline calls after the
// uploaded file has been read and validated as JSON, but prior to decoding and flattening it.
// This way the client could modify/enrich the document (see orderlake.EnrichEvent) or filter
// out files not to be processed.
// The document is provided as a mutable argument to avoid requiring the client to always
// return data even if not used.
type PreTransformHookFunc func(ctx context.Context, loc Location, data *[]byte) HookAction

// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"errors"
	"fmt"
)

// ErrorType classifies why an analysis could not produce a report.
type ErrorType string

const (
	ErrorTypeMissingCredential   ErrorType = "MISSING_CREDENTIAL"
	ErrorTypeInvalidInput        ErrorType = "INVALID_INPUT"
	ErrorTypeTokenBudgetExceeded ErrorType = "TOKEN_BUDGET_EXCEEDED"
	ErrorTypeNetworkOrAPIFailure ErrorType = "NETWORK_OR_API_FAILURE"
	ErrorTypeEmptyResponse       ErrorType = "EMPTY_RESPONSE"
)

// InputReason names the field that failed validation.
type InputReason string

const (
	ReasonURL    InputReason = "url"
	ReasonRange  InputReason = "range"
	ReasonPrompt InputReason = "prompt"
	ReasonFPS    InputReason = "fps"
)

// UnknownErrorMessage is used when the provider gives no usable message.
const UnknownErrorMessage = "unknown error"

// AnalysisError is the single error type surfaced to the user. Message is
// shown verbatim.
type AnalysisError struct {
	Type    ErrorType
	Reason  InputReason // Set for ErrorTypeInvalidInput.
	Status  int         // HTTP status for provider failures; 0 when no response arrived.
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is matches another *AnalysisError of the same type and reason, so sentinel
// comparisons such as errors.Is(err, NewInvalidInput(ReasonURL)) work.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return e.Type == t.Type && (t.Reason == "" || e.Reason == t.Reason)
}

// NewMissingCredential reports that no API key has been saved.
func NewMissingCredential() *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeMissingCredential,
		Message: "No API key is configured. Save your key in the panel settings first.",
	}
}

// NewInvalidInput reports a request field that failed validation.
func NewInvalidInput(reason InputReason) *AnalysisError {
	var msg string
	switch reason {
	case ReasonURL:
		msg = "Please provide a valid YouTube video URL."
	case ReasonRange:
		msg = "The end time must be greater than the start time."
	case ReasonPrompt:
		msg = "Please enter a prompt."
	case ReasonFPS:
		msg = fmt.Sprintf("The frame rate must be greater than 0 and at most %g.", MaxFPS)
	default:
		msg = "Invalid input."
	}
	return &AnalysisError{Type: ErrorTypeInvalidInput, Reason: reason, Message: msg}
}

// NewTokenBudgetExceeded reports an estimate above the per-request cap.
func NewTokenBudgetExceeded(estimate, limit int) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeTokenBudgetExceeded,
		Message: fmt.Sprintf("The estimated token count %d exceeds the limit of %d.", estimate, limit),
	}
}

// NewAPIFailure reports a non-success response from the provider.
func NewAPIFailure(status int, message string, err error) *AnalysisError {
	if message == "" {
		message = UnknownErrorMessage
	}
	return &AnalysisError{
		Type:    ErrorTypeNetworkOrAPIFailure,
		Status:  status,
		Message: fmt.Sprintf("API request failed with status %d. %s", status, message),
		Err:     err,
	}
}

// NewNetworkFailure reports a call that never produced a response.
func NewNetworkFailure(err error) *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeNetworkOrAPIFailure,
		Message: err.Error(),
		Err:     err,
	}
}

// NewEmptyResponse reports a response without any non-blank text part.
func NewEmptyResponse() *AnalysisError {
	return &AnalysisError{
		Type:    ErrorTypeEmptyResponse,
		Message: "No valid text content was found in the API response.",
	}
}

// TypeOf returns the ErrorType of err, or "" when err is not an AnalysisError.
func TypeOf(err error) ErrorType {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Type
	}
	return ""
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

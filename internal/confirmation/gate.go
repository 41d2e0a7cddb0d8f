package confirmation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/aic/internal/security"
	"github.com/temirov/aic/internal/utils"
)

const (
	decisionProceedStringConstant         = "proceed"
	decisionAbortStringConstant           = "abort"
	dangerousWarningLineConstant          = "WARNING: This command is potentially destructive!\n"
	elevatedPrivilegesWarningLineConstant = "WARNING: This command requires elevated privileges!\n"
	confirmationQuestionTemplateConstant  = "Are you sure you want to execute: %q ?\n"
	descriptionLineTemplateConstant       = "Description: %s\n"
	answerChoicesConstant                 = "(yes/no): "
	affirmativeShortAnswerConstant        = "y"
	affirmativeLongAnswerConstant         = "yes"
	confirmationRequestedMessageConstant  = "Confirmation requested"
	confirmationGrantedMessageConstant    = "Confirmation granted"
	confirmationDeclinedMessageConstant   = "Confirmation declined"
	confirmationSkippedMessageConstant    = "Confirmation waived for clear command"
	promptWriteFailedMessageConstant      = "Unable to write confirmation prompt"
	answerReadFailedMessageConstant       = "Unable to read confirmation answer"
	logFieldCommandConstant               = "command"
	logFieldVerdictConstant               = "verdict"
	logFieldReasonConstant                = "reason"
	logFieldAutoApproveConstant           = "auto_approve"
)

// Decision is the outcome of the confirmation checkpoint. The zero value aborts.
type Decision int

// Supported decisions.
const (
	DecisionAbort Decision = iota
	DecisionProceed
)

// String returns the stable identifier of the decision.
func (decision Decision) String() string {
	if decision == DecisionProceed {
		return decisionProceedStringConstant
	}
	return decisionAbortStringConstant
}

// Request describes a command awaiting permission to run. Description is optional free text
// shown beneath the question.
type Request struct {
	Command     string
	Verdict     security.Verdict
	AutoApprove bool
	Description string
}

// RequiresConfirmation reports whether the caller must be asked before running a command.
// Auto-approval only waives confirmation for clear verdicts.
func RequiresConfirmation(verdict security.Verdict, autoApprove bool) bool {
	if !autoApprove {
		return true
	}
	return !verdict.IsClear()
}

// Gate prompts on a writer and reads one answer line from a reader. Prompts from concurrent
// callers never interleave.
type Gate struct {
	mutex  sync.Mutex
	reader *bufio.Reader
	writer io.Writer
	logger *zap.Logger
}

// NewGate constructs a gate. An existing *bufio.Reader is reused so the gate can share
// buffered input with another consumer of the same stream.
func NewGate(input io.Reader, output io.Writer, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if input == nil {
		input = strings.NewReader("")
	}
	return &Gate{
		reader: bufio.NewReader(input),
		writer: utils.NewFlushingWriter(output),
		logger: logger,
	}
}

// Confirm returns DecisionProceed without any terminal exchange when confirmation is waived.
// Otherwise it writes the prompt, reads a single line, and proceeds only on "y" or "yes"
// (case-insensitive). Write and read failures abort.
func (gate *Gate) Confirm(request Request) Decision {
	fields := []zap.Field{
		zap.String(logFieldCommandConstant, request.Command),
		zap.String(logFieldVerdictConstant, request.Verdict.Kind.String()),
		zap.Bool(logFieldAutoApproveConstant, request.AutoApprove),
	}
	if len(request.Verdict.Reason) > 0 {
		fields = append(fields, zap.String(logFieldReasonConstant, request.Verdict.Reason))
	}

	if !RequiresConfirmation(request.Verdict, request.AutoApprove) {
		gate.logger.Debug(confirmationSkippedMessageConstant, fields...)
		return DecisionProceed
	}

	gate.mutex.Lock()
	defer gate.mutex.Unlock()

	gate.logger.Info(confirmationRequestedMessageConstant, fields...)

	if writeError := gate.writePrompt(request); writeError != nil {
		gate.logger.Warn(promptWriteFailedMessageConstant, append(fields, zap.Error(writeError))...)
		return DecisionAbort
	}

	answer, readError := gate.reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		gate.logger.Warn(answerReadFailedMessageConstant, append(fields, zap.Error(readError))...)
		return DecisionAbort
	}

	if isAffirmative(answer) {
		gate.logger.Info(confirmationGrantedMessageConstant, fields...)
		return DecisionProceed
	}

	gate.logger.Info(confirmationDeclinedMessageConstant, fields...)
	return DecisionAbort
}

func (gate *Gate) writePrompt(request Request) error {
	var prompt strings.Builder
	switch request.Verdict.Kind {
	case security.VerdictDangerous:
		prompt.WriteString(dangerousWarningLineConstant)
	case security.VerdictElevatedPrivileges:
		prompt.WriteString(elevatedPrivilegesWarningLineConstant)
	}
	prompt.WriteString(fmt.Sprintf(confirmationQuestionTemplateConstant, request.Command))
	if description := strings.TrimSpace(request.Description); len(description) > 0 {
		prompt.WriteString(fmt.Sprintf(descriptionLineTemplateConstant, description))
	}
	prompt.WriteString(answerChoicesConstant)

	_, writeError := io.WriteString(gate.writer, prompt.String())
	return writeError
}

func isAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case affirmativeShortAnswerConstant, affirmativeLongAnswerConstant:
		return true
	default:
		return false
	}
}

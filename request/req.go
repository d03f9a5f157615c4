package request

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/zig_transfer/entity"
	wrapErrors "github.com/linlinbupt123-crypto/zig_transfer/errors"
)

// InputProvider answers interactive prompts.
type InputProvider interface {
	Ask(prompt string) (string, error)
}

// TerminalInput prompts on out and reads one line per answer from in.
type TerminalInput struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalInput(in io.Reader, out io.Writer) *TerminalInput {
	return &TerminalInput{in: bufio.NewReader(in), out: out}
}

func (t *TerminalInput) Ask(prompt string) (string, error) {
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ScriptedInput replays fixed answers in order.
type ScriptedInput struct {
	answers []string
	Asked   []string
}

func NewScriptedInput(answers ...string) *ScriptedInput {
	return &ScriptedInput{answers: answers}
}

func (s *ScriptedInput) Ask(prompt string) (string, error) {
	s.Asked = append(s.Asked, prompt)
	if len(s.answers) == 0 {
		return "", io.ErrUnexpectedEOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return strings.TrimSpace(answer), nil
}

const (
	ChoicePrompt = "Enter choice (1/2/3): "
	AmountPrompt = "Enter %s amount: "
)

// ReadTransferRequest asks for the transfer mode and, for the fixed mode,
// a positive amount in display units.
func ReadTransferRequest(in InputProvider, symbol string) (entity.TransferRequest, error) {
	choice, err := in.Ask(ChoicePrompt)
	if err != nil {
		return entity.TransferRequest{}, wrapErrors.WrapWithCode(wrapErrors.InvalidInputErr, "read choice", err)
	}

	mode, err := ParseMode(choice)
	if err != nil {
		return entity.TransferRequest{}, err
	}
	req := entity.TransferRequest{Mode: mode}
	if mode != entity.ModeFixedAmount {
		return req, nil
	}

	raw, err := in.Ask(fmt.Sprintf(AmountPrompt, symbol))
	if err != nil {
		return entity.TransferRequest{}, wrapErrors.WrapWithCode(wrapErrors.InvalidInputErr, "read amount", err)
	}
	req.Amount, err = ParseAmount(raw)
	if err != nil {
		return entity.TransferRequest{}, err
	}
	return req, nil
}

func ParseMode(choice string) (entity.TransferMode, error) {
	switch strings.TrimSpace(choice) {
	case "1":
		return entity.ModeFixedAmount, nil
	case "2":
		return entity.ModeRandomAmount, nil
	case "3":
		return entity.ModeAllBalance, nil
	default:
		return 0, wrapErrors.Newf(wrapErrors.InvalidInputErr, "invalid choice %q, use 1, 2, or 3", choice)
	}
}

func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, wrapErrors.WrapWithCode(wrapErrors.InvalidInputErr, "invalid amount, must be a number", err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, wrapErrors.New(wrapErrors.InvalidInputErr, "amount must be greater than 0")
	}
	return amount, nil
}

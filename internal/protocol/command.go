// Package protocol implements the line-oriented command protocol shared by
// the server engine and the client CLI: tokenizing a request line,
// classifying it against the fixed command vocabulary, and validating its
// arguments before dispatch.
package protocol

import (
	"strings"
)

// Command identifies one of the protocol commands.
type Command int

const (
	CmdRegister Command = iota
	CmdCreate
	CmdUnregister
	CmdExit
	CmdSendRSVP
	CmdGetRSVPList
	CmdGetTop5
	CmdIllegal
)

// Argument limits enforced on CREATE.
const (
	MaxTitleLen       = 30
	MaxDateLen        = 30
	MaxDescriptionLen = 256
)

var commandNames = map[Command]string{
	CmdRegister:    "REGISTER",
	CmdCreate:      "CREATE",
	CmdUnregister:  "UNREGISTER",
	CmdExit:        "EXIT",
	CmdSendRSVP:    "SEND_RSVP",
	CmdGetRSVPList: "GET_RSVPS_LIST",
	CmdGetTop5:     "GET_TOP_5",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "ILLEGAL"
}

// Classify matches the first token of a request against the command
// vocabulary. Matching is case-insensitive and exact; anything unmatched is
// CmdIllegal.
func Classify(token string) Command {
	switch strings.ToUpper(token) {
	case "REGISTER":
		return CmdRegister
	case "CREATE":
		return CmdCreate
	case "UNREGISTER":
		return CmdUnregister
	case "EXIT":
		return CmdExit
	case "SEND_RSVP":
		return CmdSendRSVP
	case "GET_RSVPS_LIST":
		return CmdGetRSVPList
	case "GET_TOP_5":
		return CmdGetTop5
	default:
		return CmdIllegal
	}
}

// Tokenize splits a request line on single spaces, dropping empty tokens.
// A trailing newline is stripped from the final token. Pure function.
func Tokenize(line string) []string {
	parts := strings.Split(line, " ")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	if n := len(tokens); n > 0 {
		tokens[n-1] = strings.TrimSuffix(strings.TrimSuffix(tokens[n-1], "\n"), "\r")
		if tokens[n-1] == "" {
			tokens = tokens[:n-1]
		}
	}
	return tokens
}

// JoinDescription collapses every token from index 3 onward into a single
// space-separated description token. CREATE descriptions may contain spaces,
// so the rejoin happens before any length check.
func JoinDescription(tokens []string) []string {
	if len(tokens) <= 4 {
		return tokens
	}
	joined := make([]string, 0, 4)
	joined = append(joined, tokens[:3]...)
	joined = append(joined, strings.Join(tokens[3:], " "))
	return joined
}

// IsDigits reports whether s is a non-empty string of decimal digits with no
// sign and no surrounding whitespace.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks a classified command's arguments and the caller's session
// state. On success it returns the (possibly description-joined) tokens.
//
// This is a pre-flight check on the issuing side; the engine re-validates
// registration state and numeric arguments at execution time, since both can
// change between validation and execution under concurrency.
func Validate(cmd Command, tokens []string, registered bool) ([]string, *Rejection) {
	switch cmd {
	case CmdRegister:
		if registered {
			return nil, &Rejection{Reason: ReasonAlreadyRegistered}
		}
		if len(tokens) > 1 {
			return nil, &Rejection{Reason: ReasonMissingArguments, Command: cmd}
		}
		return tokens, nil

	case CmdCreate:
		if !registered {
			return nil, &Rejection{Reason: ReasonNotRegistered}
		}
		if len(tokens) < 4 {
			return nil, &Rejection{Reason: ReasonMissingArguments, Command: cmd}
		}
		tokens = JoinDescription(tokens)
		if len(tokens[1]) > MaxTitleLen {
			return nil, &Rejection{Reason: ReasonInvalidArgument, Command: cmd, Arg: tokens[1]}
		}
		if len(tokens[2]) > MaxDateLen {
			return nil, &Rejection{Reason: ReasonInvalidArgument, Command: cmd, Arg: tokens[2]}
		}
		if len(tokens[3]) > MaxDescriptionLen {
			return nil, &Rejection{Reason: ReasonInvalidArgument, Command: cmd, Arg: tokens[3]}
		}
		return tokens, nil

	case CmdUnregister, CmdGetTop5:
		if !registered {
			return nil, &Rejection{Reason: ReasonNotRegistered}
		}
		if len(tokens) > 1 {
			return nil, &Rejection{Reason: ReasonMissingArguments, Command: cmd}
		}
		return tokens, nil

	case CmdSendRSVP, CmdGetRSVPList:
		if !registered {
			return nil, &Rejection{Reason: ReasonNotRegistered}
		}
		if len(tokens) < 2 {
			return nil, &Rejection{Reason: ReasonMissingArguments, Command: cmd}
		}
		if !IsDigits(tokens[1]) {
			return nil, &Rejection{Reason: ReasonInvalidArgument, Command: cmd, Arg: tokens[1]}
		}
		return tokens, nil

	case CmdExit:
		// EXIT is legal even before REGISTER.
		return tokens, nil

	default:
		return nil, &Rejection{Reason: ReasonCommandNotExist}
	}
}

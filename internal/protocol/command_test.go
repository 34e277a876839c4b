package protocol

import (
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "single command",
			line: "REGISTER",
			want: []string{"REGISTER"},
		},
		{
			name: "trailing newline stripped",
			line: "GET_TOP_5\n",
			want: []string{"GET_TOP_5"},
		},
		{
			name: "multiple tokens",
			line: "CREATE Launch 2024-01-01 kickoff",
			want: []string{"CREATE", "Launch", "2024-01-01", "kickoff"},
		},
		{
			name: "repeated spaces dropped",
			line: "SEND_RSVP   12",
			want: []string{"SEND_RSVP", "12"},
		},
		{
			name: "newline on last token only",
			line: "SEND_RSVP 12\n",
			want: []string{"SEND_RSVP", "12"},
		},
		{
			name: "empty line",
			line: "",
			want: []string{},
		},
		{
			name: "only spaces",
			line: "   ",
			want: []string{},
		},
		{
			name: "bare newline",
			line: "\n",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.line)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.line, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Tokenize(%q)[%d] = %q, want %q", tt.line, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  Command
	}{
		{"REGISTER", CmdRegister},
		{"register", CmdRegister},
		{"Create", CmdCreate},
		{"UNREGISTER", CmdUnregister},
		{"exit", CmdExit},
		{"SEND_RSVP", CmdSendRSVP},
		{"GET_RSVPS_LIST", CmdGetRSVPList},
		{"get_top_5", CmdGetTop5},
		{"REGISTERX", CmdIllegal},
		{"SEND RSVP", CmdIllegal},
		{"", CmdIllegal},
	}

	for _, tt := range tests {
		if got := Classify(tt.token); got != tt.want {
			t.Fatalf("Classify(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestJoinDescription(t *testing.T) {
	tokens := []string{"CREATE", "Launch", "2024-01-01", "kickoff", "party", "tonight"}
	joined := JoinDescription(tokens)

	if len(joined) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %v", len(joined), joined)
	}
	if joined[3] != "kickoff party tonight" {
		t.Fatalf("description = %q, want %q", joined[3], "kickoff party tonight")
	}

	// Exactly four tokens pass through untouched.
	four := []string{"CREATE", "a", "b", "c"}
	if got := JoinDescription(four); len(got) != 4 || got[3] != "c" {
		t.Fatalf("JoinDescription(%v) = %v", four, got)
	}
}

func TestIsDigits(t *testing.T) {
	valid := []string{"0", "5", "12", "00123", "999999999"}
	for _, s := range valid {
		if !IsDigits(s) {
			t.Fatalf("IsDigits(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "-1", "+1", " 1", "1 ", "1.5", "abc", "12a", "\n"}
	for _, s := range invalid {
		if IsDigits(s) {
			t.Fatalf("IsDigits(%q) = true, want false", s)
		}
	}
}

func TestValidateRegister(t *testing.T) {
	if _, rej := Validate(CmdRegister, []string{"REGISTER"}, false); rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}

	_, rej := Validate(CmdRegister, []string{"REGISTER"}, true)
	if rej == nil || rej.Reason != ReasonAlreadyRegistered {
		t.Fatalf("expected AlreadyRegistered, got %v", rej)
	}

	_, rej = Validate(CmdRegister, []string{"REGISTER", "extra"}, false)
	if rej == nil || rej.Reason != ReasonMissingArguments {
		t.Fatalf("expected MissingArguments for extra token, got %v", rej)
	}
}

func TestValidateCreate(t *testing.T) {
	ok := []string{"CREATE", "Launch", "2024-01-01", "kickoff"}

	if _, rej := Validate(CmdCreate, ok, false); rej == nil || rej.Reason != ReasonNotRegistered {
		t.Fatalf("expected NotRegistered, got %v", rej)
	}

	tokens, rej := Validate(CmdCreate, ok, true)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %v", tokens)
	}

	if _, rej := Validate(CmdCreate, []string{"CREATE", "a", "b"}, true); rej == nil || rej.Reason != ReasonMissingArguments {
		t.Fatalf("expected MissingArguments, got %v", rej)
	}

	longTitle := strings.Repeat("t", MaxTitleLen+1)
	_, rej = Validate(CmdCreate, []string{"CREATE", longTitle, "b", "c"}, true)
	if rej == nil || rej.Reason != ReasonInvalidArgument || rej.Arg != longTitle {
		t.Fatalf("expected InvalidArgument on title, got %v", rej)
	}

	longDate := strings.Repeat("d", MaxDateLen+1)
	_, rej = Validate(CmdCreate, []string{"CREATE", "a", longDate, "c"}, true)
	if rej == nil || rej.Reason != ReasonInvalidArgument || rej.Arg != longDate {
		t.Fatalf("expected InvalidArgument on date, got %v", rej)
	}

	// Description length is checked after the rejoin, so many short tokens
	// can still overflow the limit together.
	words := make([]string, 0, 140)
	words = append(words, "CREATE", "a", "b")
	for i := 0; i < 130; i++ {
		words = append(words, "xy")
	}
	_, rej = Validate(CmdCreate, words, true)
	if rej == nil || rej.Reason != ReasonInvalidArgument {
		t.Fatalf("expected InvalidArgument on joined description, got %v", rej)
	}
}

func TestValidateEventIDCommands(t *testing.T) {
	for _, cmd := range []Command{CmdSendRSVP, CmdGetRSVPList} {
		if _, rej := Validate(cmd, []string{cmd.String(), "7"}, true); rej != nil {
			t.Fatalf("%v: unexpected rejection: %v", cmd, rej)
		}

		if _, rej := Validate(cmd, []string{cmd.String(), "7"}, false); rej == nil || rej.Reason != ReasonNotRegistered {
			t.Fatalf("%v: expected NotRegistered, got %v", cmd, rej)
		}

		if _, rej := Validate(cmd, []string{cmd.String()}, true); rej == nil || rej.Reason != ReasonMissingArguments {
			t.Fatalf("%v: expected MissingArguments, got %v", cmd, rej)
		}

		for _, bad := range []string{"-1", "1x", "1.0", ""} {
			_, rej := Validate(cmd, []string{cmd.String(), bad}, true)
			if rej == nil || rej.Reason != ReasonInvalidArgument {
				t.Fatalf("%v: expected InvalidArgument for %q, got %v", cmd, bad, rej)
			}
		}
	}
}

func TestValidateExitAndIllegal(t *testing.T) {
	if _, rej := Validate(CmdExit, []string{"EXIT"}, false); rej != nil {
		t.Fatalf("EXIT should be legal before REGISTER, got %v", rej)
	}

	_, rej := Validate(CmdIllegal, []string{"BOGUS"}, true)
	if rej == nil || rej.Reason != ReasonCommandNotExist {
		t.Fatalf("expected CommandNotExist, got %v", rej)
	}
	if rej.Response() != ErrIllegalCommand {
		t.Fatalf("response = %q, want %q", rej.Response(), ErrIllegalCommand)
	}
}

func TestRejectionResponses(t *testing.T) {
	tests := []struct {
		rej  Rejection
		want string
	}{
		{Rejection{Reason: ReasonNotRegistered}, "ERROR: first command must be REGISTER."},
		{Rejection{Reason: ReasonAlreadyRegistered, Client: "bob"}, "ERROR: the client bob was already registered."},
		{Rejection{Reason: ReasonMissingArguments, Command: CmdCreate}, "ERROR: missing arguments in command CREATE."},
		{Rejection{Reason: ReasonInvalidArgument, Command: CmdSendRSVP, Arg: "abc"}, "ERROR: invalid argument abc in command SEND_RSVP."},
		{Rejection{Reason: ReasonCommandNotExist}, "ERROR: illegal command."},
	}

	for _, tt := range tests {
		if got := tt.rej.Response(); got != tt.want {
			t.Fatalf("Response() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatGuestList(t *testing.T) {
	got := FormatGuestList([]string{"CAROL", "alice", "Bob"})
	if got != "alice,Bob,CAROL" {
		t.Fatalf("FormatGuestList = %q", got)
	}

	if got := FormatGuestList(nil); got != "" {
		t.Fatalf("empty list should format to empty string, got %q", got)
	}
}

func TestFormatEventLine(t *testing.T) {
	got := FormatEventLine(1, "Launch", "2024-01-01", "kickoff")
	if got != "1\tLaunch\t2024-01-01\tkickoff." {
		t.Fatalf("FormatEventLine = %q", got)
	}
}

package executor

import (
	"encoding/json"
	"regexp"
	"strings"
)

// echoRedirect matches a '>' that is not preceded by a backslash, together
// with any whitespace around it, so "echo hi>file" and "echo hi> file" both
// become "echo hi > file" while an escaped "\>" is left alone.
var echoRedirect = regexp.MustCompile(`([^\s\\])\s*>\s*`)

// Normalize applies the command-text accommodations the server's wire
// format requires, in a fixed order, and is isolated in this single
// function so it can be replaced with a stricter contract later without
// touching the executor's control flow.
func Normalize(command string) string {
	command = maybeJSONDecode(command)
	command = unescapeQuotes(command)
	command = spaceEchoRedirect(command)
	command = collapseNewlines(command)
	return command
}

// maybeJSONDecode attempts to JSON-decode command if it starts with a
// quote (the server sometimes sends pre-escaped JSON string literals); on
// any failure the original string is kept unchanged.
func maybeJSONDecode(command string) string {
	if !strings.HasPrefix(command, `"`) {
		return command
	}
	var decoded string
	if err := json.Unmarshal([]byte(command), &decoded); err != nil {
		return command
	}
	return decoded
}

// unescapeQuotes undoes backslash-escaped quote characters the server may
// have left in, whether or not maybeJSONDecode already ran.
func unescapeQuotes(command string) string {
	command = strings.ReplaceAll(command, `\"`, `"`)
	command = strings.ReplaceAll(command, `\'`, `'`)
	return command
}

// spaceEchoRedirect ensures whitespace around an un-escaped '>' in an echo
// command, e.g. "echo hi>out" becomes "echo hi > out".
func spaceEchoRedirect(command string) string {
	if !strings.HasPrefix(strings.TrimSpace(command), "echo") {
		return command
	}
	if !strings.Contains(command, ">") {
		return command
	}
	return echoRedirect.ReplaceAllString(command, "$1 > ")
}

// collapseNewlines joins a multi-line command into a single line, trimming
// and dropping empty segments, since the compose step appends "; pwd" and
// assumes a single logical line.
func collapseNewlines(command string) string {
	if !strings.Contains(command, "\n") {
		return command
	}
	lines := strings.Split(command, "\n")
	segments := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return strings.Join(segments, "; ")
}

// Compose appends the trailing "; pwd" the agent uses to learn the shell's
// new working directory after the command runs.
func Compose(normalized string) string {
	return normalized + "; pwd\n"
}

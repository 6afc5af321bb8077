package registry

import "strings"

// looksLikePath reports whether line starts like an absolute path: either
// "/"-rooted or "C:\" style drive-rooted.
func looksLikePath(line string) bool {
	if strings.HasPrefix(line, "/") {
		return true
	}
	if len(line) >= 3 && isASCIILetter(line[0]) && line[1] == ':' && line[2] == '\\' {
		return true
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// extractTrailingPwd implements the expect_pwd heuristic: look at the last
// non-empty line of chunk; if it looks like an absolute path, treat it as
// the new cwd and elide the matched substring from the bytes before they
// reach the ring. Detecting the new cwd by parsing the last line of output
// this way is fragile in the presence of prompts, color codes, or
// multi-line command output; on failure the shell simply keeps its
// previous cwd.
func extractTrailingPwd(chunk []byte) (path string, elided []byte, ok bool) {
	s := string(chunk)
	lines := strings.Split(s, "\n")

	lastIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			lastIdx = i
			break
		}
	}
	if lastIdx == -1 {
		return "", chunk, false
	}

	candidate := strings.TrimSpace(lines[lastIdx])
	// Strip a trailing carriage return a PTY commonly leaves on the line.
	candidate = strings.TrimSuffix(candidate, "\r")
	if !looksLikePath(candidate) {
		return "", chunk, false
	}

	lines[lastIdx] = strings.Replace(lines[lastIdx], candidate, "", 1)
	return candidate, []byte(strings.Join(lines, "\n")), true
}

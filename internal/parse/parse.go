// Package parse extracts structured events from game server log lines.
// Every function is pure: lines in, optional value out.
package parse

import (
	"regexp"
	"slices"
	"strconv"
)

var (
	// Vanilla chat: "<Alex> !restart".
	voteChatRe = regexp.MustCompile(`(?i)<([A-Za-z0-9_]{1,16})>\s+!(?:vote)?restart(?:\s|$)`)
	// Chat plugins: "[Member] Alex: !voterestart".
	votePluginRe = regexp.MustCompile(`(?i)(?:^|[\s\]])([A-Za-z0-9_]{1,16}):\s+!(?:vote)?restart(?:\s|$)`)

	playersOfMaxRe = regexp.MustCompile(`There are (\d+) of a max(?: of)? (\d+) players online`)
	playersSlashRe = regexp.MustCompile(`There are (\d+)/(\d+) players online`)

	meanTPSRe = regexp.MustCompile(`Mean TPS: ([0-9]+(?:\.[0-9]+)?)`)
)

// Vote returns the voter named in line, if line is a restart vote.
func Vote(line string) (string, bool) {
	if m := voteChatRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := votePluginRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// Voters returns the distinct voters in lines, in first-seen order.
func Voters(lines []string) []string {
	var voters []string
	for _, line := range lines {
		name, ok := Vote(line)
		if ok && !slices.Contains(voters, name) {
			voters = append(voters, name)
		}
	}
	return voters
}

// PlayerCount returns the online count from the newest player-list line.
func PlayerCount(lines []string) (int, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		m := playersOfMaxRe.FindStringSubmatch(lines[i])
		if m == nil {
			m = playersSlashRe.FindStringSubmatch(lines[i])
		}
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// MinMeanTPS returns the lowest "Mean TPS" reported across all partitions
// in lines.
func MinMeanTPS(lines []string) (float64, bool) {
	var (
		lowest float64
		found  bool
	)
	for _, line := range lines {
		for _, m := range meanTPSRe.FindAllStringSubmatch(line, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if !found || v < lowest {
				lowest = v
				found = true
			}
		}
	}
	return lowest, found
}
